package blockindex

import "testing"

func TestFastLinkTarget(t *testing.T) {
	tests := []struct {
		chainLength    uint64
		expectedTarget uint64
		expectedOk     bool
	}{
		{chainLength: 1, expectedOk: false},
		{chainLength: 2, expectedOk: false},
		{chainLength: 3, expectedOk: false},
		{chainLength: 31, expectedOk: false},
		{chainLength: 32, expectedOk: false},
		{chainLength: 33, expectedOk: false},
		{chainLength: 34, expectedTarget: 31, expectedOk: true},
		{chainLength: 35, expectedTarget: 28, expectedOk: true},
		{chainLength: 36, expectedTarget: 21, expectedOk: true},
		{chainLength: 37, expectedTarget: 6, expectedOk: true},
		{chainLength: 38, expectedOk: false},
		{chainLength: 64, expectedOk: false},
		{chainLength: 66, expectedTarget: 63, expectedOk: true},
		{chainLength: 100, expectedTarget: 85, expectedOk: true},
		{chainLength: 199, expectedTarget: 72, expectedOk: true},
		{chainLength: 1<<31 + 31, expectedTarget: 32, expectedOk: true},
	}

	for _, test := range tests {
		target, ok := fastLinkTarget(test.chainLength)
		if ok != test.expectedOk || target != test.expectedTarget {
			t.Fatalf("TestFastLinkTarget: unexpected result for chain length %d. "+
				"Want: (%d, %t), got: (%d, %t)", test.chainLength,
				test.expectedTarget, test.expectedOk, target, ok)
		}
	}
}

func TestFastLinkDistances(t *testing.T) {
	// Every fast link spans 2^order - 1 blocks and reaches no further
	// back than genesis.
	for chainLength := uint64(1); chainLength < 5000; chainLength++ {
		target, ok := fastLinkTarget(chainLength)
		if !ok {
			continue
		}
		distance := chainLength - target
		if target < 1 || distance < 2 {
			t.Fatalf("TestFastLinkDistances: chain length %d got invalid target %d",
				chainLength, target)
		}
		if distance&(distance+1) != 0 {
			t.Fatalf("TestFastLinkDistances: chain length %d got distance %d, "+
				"which is not a power of two minus one", chainLength, distance)
		}
	}
}
