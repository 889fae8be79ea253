package scheduler

import (
	"fmt"
	"testing"
)

func TestPartitionerDisabledOwnsEverything(t *testing.T) {
	p := NewPartitioner(false, 0, 4)
	for i := 0; i < 20; i++ {
		if !p.Owns(fmt.Sprintf("movie-%d", i)) {
			t.Errorf("disabled partitioner must own movie-%d", i)
		}
	}
}

func TestPartitionerSingleReplicaOwnsEverything(t *testing.T) {
	p := NewPartitioner(true, 0, 1)
	for i := 0; i < 20; i++ {
		if !p.Owns(fmt.Sprintf("movie-%d", i)) {
			t.Errorf("single-replica partitioner must own movie-%d", i)
		}
	}
}

func TestPartitionerIsDeterministic(t *testing.T) {
	a := NewPartitioner(true, 1, 3)
	b := NewPartitioner(true, 1, 3)

	for i := 0; i < 100; i++ {
		movieID := fmt.Sprintf("movie-%d", i)
		if a.Owns(movieID) != b.Owns(movieID) {
			t.Fatalf("same replica disagrees on %s", movieID)
		}
	}
}

func TestPartitionerCoversEveryMovieExactlyOnce(t *testing.T) {
	const fleetSize = 3
	replicas := make([]*Partitioner, fleetSize)
	for i := range replicas {
		replicas[i] = NewPartitioner(true, int64(i), fleetSize)
	}

	for i := 0; i < 200; i++ {
		movieID := fmt.Sprintf("movie-%d", i)
		owners := 0
		for _, p := range replicas {
			if p.Owns(movieID) {
				owners++
			}
		}
		if owners != 1 {
			t.Errorf("%s owned by %d replicas, want exactly 1", movieID, owners)
		}
	}
}

func TestPartitionerFilter(t *testing.T) {
	p := NewPartitioner(true, 0, 2)

	movies := make([]string, 50)
	for i := range movies {
		movies[i] = fmt.Sprintf("movie-%d", i)
	}

	owned := p.Filter(movies)
	for _, movieID := range owned {
		if !p.Owns(movieID) {
			t.Errorf("Filter kept %s which Owns rejects", movieID)
		}
	}
	if len(owned) == 0 || len(owned) == len(movies) {
		t.Errorf("Filter kept %d of %d, expected a proper subset", len(owned), len(movies))
	}
}
