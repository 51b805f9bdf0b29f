package sqlitestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proteus-tel/proteus/internal/ptevent"
)

func TestStoreAppendPersistsTracksAndLocalStates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sqlite")
	store, err := Open(path, "run-1")
	require.NoError(t, err)
	defer store.Close()

	ev := ptevent.NewEvent([]int{0})
	ev.Sensor(0).Clusters = []ptevent.Cluster{{Track: -1}}
	ev.Sensor(0).LocalStates = []ptevent.TrackState{{Params: [6]float64{1, 2, 0, 0, 0, 0}, Track: 0}}
	ev.AddTrack(ptevent.Track{
			Clusters: map[int]int{0: 0},
			Global: ptevent.GlobalState{Params: [6]float64{0, 0, 0.1, 0.2, 0, 0}},
			Fit: ptevent.GoodnessOfFit{Chi2: 3, Dof: 1},
		})

	require.NoError(t, store.Append(ev))

	var chi2 float64
	require.NoError(t, store.db.QueryRow(`SELECT chi2 FROM tracks WHERE run_id = ?`, "run-1").Scan(&chi2))
	assert.Equal(t, 3.0, chi2)

	var u, v float64
	require.NoError(t, store.db.QueryRow(`SELECT u, v FROM local_states WHERE run_id = ?`, "run-1").Scan(&u, &v))
	assert.Equal(t, 1.0, u)
	assert.Equal(t, 2.0, v)
}

func TestOpenIsIdempotentAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sqlite")
	s1, err := Open(path, "run-1")
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, "run-1")
	require.NoError(t, err)
	defer s2.Close()
}
