package engine_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/aoleynichenko/EXP-T-sub003/config"
	"github.com/aoleynichenko/EXP-T-sub003/engine"
)

func TestForEachBlockVisitsEveryIndex(t *testing.T) {
	cfg := config.Default()
	cfg.NThreads = 4
	cfg.OpenMPAlgorithm = config.External
	sched := engine.New(cfg)

	const n = 37
	var seen [n]int32
	err := sched.ForEachBlock(context.Background(), n, func(i int) error {
		atomic.AddInt32(&seen[i], 1)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachBlock: %v", err)
	}
	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestForEachBlockInternalAlgorithmIsSerial(t *testing.T) {
	cfg := config.Default()
	cfg.NThreads = 8
	cfg.OpenMPAlgorithm = config.Internal
	sched := engine.New(cfg)
	if sched.Workers() != 1 {
		t.Fatalf("Workers() = %d under internal algorithm, want 1", sched.Workers())
	}
}

func TestForEachBlockPropagatesError(t *testing.T) {
	cfg := config.Default()
	cfg.NThreads = 4
	sched := engine.New(cfg)

	sentinel := errFailed{}
	err := sched.ForEachBlock(context.Background(), 10, func(i int) error {
		if i == 5 {
			return sentinel
		}
		return nil
	})
	if err == nil {
		t.Fatalf("expected an error to propagate")
	}
}

type errFailed struct{}

func (errFailed) Error() string { return "failed" }
