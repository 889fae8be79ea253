package service

import (
	"context"
	"os"
	"strconv"

	"github.com/devfong/cinema-gate/config"
	"github.com/devfong/cinema-gate/pkg/logger"
)

// FleetDiscovery reports how many serving replicas the deployment
// currently runs. Implementations may query an orchestrator; failures
// fall back to a configured default.
type FleetDiscovery interface {
	ReplicaCount(ctx context.Context) (int64, error)
}

// envFleetDiscovery reads the replica count published into the
// environment by the deployment layer.
type envFleetDiscovery struct {
	key string
}

func NewEnvFleetDiscovery() FleetDiscovery {
	return &envFleetDiscovery{key: "FLEET_REPLICA_COUNT"}
}

func (d *envFleetDiscovery) ReplicaCount(ctx context.Context) (int64, error) {
	raw := os.Getenv(d.key)
	if raw == "" {
		return 0, os.ErrNotExist
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, os.ErrInvalid
	}

	return n, nil
}

// CapacityInfo is the snapshot returned by the system config endpoint.
type CapacityInfo struct {
	FleetSize              int64 `json:"fleetSize"`
	BaseSessionsPerReplica int64 `json:"baseSessionsPerReplica"`
	MaxTotalSessions       int64 `json:"maxTotalSessions"`
	MaxActiveSessions      int64 `json:"maxActiveSessions"`
	SessionTimeoutSeconds  int64 `json:"sessionTimeoutSeconds"`
	DynamicScalingEnabled  bool  `json:"dynamicScalingEnabled"`
}

// CapacityCalculator derives the admission ceiling from the current
// fleet size. Nothing is cached between calls, so a scale event takes
// effect on the next admission decision.
type CapacityCalculator struct {
	cfg   config.AdmissionConfig
	fleet FleetDiscovery
	l     logger.Logger
}

func NewCapacityCalculator(cfg config.AdmissionConfig, fleet FleetDiscovery, l logger.Logger) *CapacityCalculator {
	return &CapacityCalculator{
		cfg:   cfg,
		fleet: fleet,
		l:     l,
	}
}

// MaxActiveSessions computes min(fleetSize * base, maxTotal).
func (c *CapacityCalculator) MaxActiveSessions(ctx context.Context) int64 {
	max := c.fleetSize(ctx) * int64(c.cfg.BaseSessionsPerReplica)
	if ceiling := int64(c.cfg.MaxTotalSessions); max > ceiling {
		max = ceiling
	}

	return max
}

func (c *CapacityCalculator) Info(ctx context.Context) CapacityInfo {
	return CapacityInfo{
		FleetSize:              c.fleetSize(ctx),
		BaseSessionsPerReplica: int64(c.cfg.BaseSessionsPerReplica),
		MaxTotalSessions:       int64(c.cfg.MaxTotalSessions),
		MaxActiveSessions:      c.MaxActiveSessions(ctx),
		SessionTimeoutSeconds:  int64(c.cfg.SessionTimeout.Seconds()),
		DynamicScalingEnabled:  c.cfg.DynamicScalingEnabled,
	}
}

func (c *CapacityCalculator) fleetSize(ctx context.Context) int64 {
	if !c.cfg.DynamicScalingEnabled {
		return int64(c.cfg.FallbackFleetSize)
	}

	n, err := c.fleet.ReplicaCount(ctx)
	if err != nil || n <= 0 {
		c.l.Warnf(ctx, "Fleet discovery unavailable, using fallback size %d: %v", c.cfg.FallbackFleetSize, err)
		return int64(c.cfg.FallbackFleetSize)
	}

	return n
}
