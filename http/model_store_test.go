package http

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"phishurl/ml"
)

// httpsTree is a real, serializable model that splits on uses_https.
func httpsTree(t *testing.T, modelType ml.ModelType) *ml.Model {
	t.Helper()
	rows := make([][]float64, 4)
	for i := range rows {
		rows[i] = make([]float64, ml.NumFeatures)
	}
	rows[0][11], rows[1][11] = 1, 1
	labels := []int{0, 0, 1, 1}

	var c ml.Classifier
	if modelType == ml.RandomForestModel {
		c = ml.NewRandomForest(3, 2, 0, 1)
	} else {
		c = ml.NewDecisionTree(2, 1)
	}
	require.NoError(t, c.Train(rows, labels))
	return &ml.Model{Type: modelType, Classifier: c, FeatureNames: ml.FeatureNames(), TrainedAt: time.Now().UTC()}
}

func TestModelStoreLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	store, err := NewModelStore(path, 8, zaptest.NewLogger(t))
	require.NoError(t, err)

	err = store.Load()
	require.Error(t, err)
	assert.True(t, ml.IsModelNotFound(err))
	assert.Nil(t, store.Predictor())

	require.NoError(t, ml.SaveModel(path, httpsTree(t, ml.DecisionTreeModel)))
	require.NoError(t, store.Load())
	require.NotNil(t, store.Model())
	assert.Equal(t, ml.DecisionTreeModel, store.Model().Type)
}

func TestModelStoreCache(t *testing.T) {
	store, err := NewModelStore("unused.json", 8, zaptest.NewLogger(t))
	require.NoError(t, err)
	store.Swap(fakeModel())

	first, err := store.Predict("http://bit.ly/a")
	require.NoError(t, err)
	second, err := store.Predict("http://bit.ly/a")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.CacheLen())

	store.Swap(fakeModel())
	assert.Equal(t, 0, store.CacheLen(), "swapping models clears cached predictions")
}

func TestModelStoreWithoutCache(t *testing.T) {
	store, err := NewModelStore("unused.json", 0, nil)
	require.NoError(t, err)
	_, err = store.Predict("https://example.com")
	assert.ErrorIs(t, err, ml.ErrNotTrained)

	store.Swap(fakeModel())
	_, err = store.Predict("https://example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, store.CacheLen())
}

func TestModelStoreWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, ml.SaveModel(path, httpsTree(t, ml.DecisionTreeModel)))

	store, err := NewModelStore(path, 8, zap.NewNop())
	require.NoError(t, err)
	store.debounce = 10 * time.Millisecond
	require.NoError(t, store.Load())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Watch(ctx))

	require.NoError(t, ml.SaveModel(path, httpsTree(t, ml.RandomForestModel)))
	require.Eventually(t, func() bool {
		m := store.Model()
		return m != nil && m.Type == ml.RandomForestModel
	}, 5*time.Second, 20*time.Millisecond)
}
