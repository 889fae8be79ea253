package scheduler

import "hash/fnv"

// Partitioner splits the tracked movie set across replicas so each
// periodic driver processes only the movies its replica owns. Assignment
// is a pure function of the movie id and the fleet shape, so every
// replica computes the same split without coordination.
type Partitioner struct {
	enabled      bool
	replicaIndex int64
	fleetSize    int64
}

func NewPartitioner(enabled bool, replicaIndex, fleetSize int64) *Partitioner {
	return &Partitioner{
		enabled:      enabled,
		replicaIndex: replicaIndex,
		fleetSize:    fleetSize,
	}
}

// Owns reports whether this replica is responsible for movieID. With
// partitioning disabled or a fleet of one, every replica owns
// everything.
func (p *Partitioner) Owns(movieID string) bool {
	if !p.enabled || p.fleetSize <= 1 {
		return true
	}

	h := fnv.New32a()
	h.Write([]byte(movieID))

	return int64(h.Sum32())%p.fleetSize == p.replicaIndex%p.fleetSize
}

// Filter keeps only the movies this replica owns.
func (p *Partitioner) Filter(movieIDs []string) []string {
	if !p.enabled || p.fleetSize <= 1 {
		return movieIDs
	}

	owned := movieIDs[:0:0]
	for _, id := range movieIDs {
		if p.Owns(id) {
			owned = append(owned, id)
		}
	}

	return owned
}
