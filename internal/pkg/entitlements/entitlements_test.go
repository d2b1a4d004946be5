package entitlements

import "testing"

func TestCapsForTier(t *testing.T) {
	tests := []struct {
		tier    Tier
		uploads int
		api     int
		storage int
	}{
		{TierFree, 100, 1000, 512},
		{TierPro, 2000, 20000, 10240},
		{TierMax, 10000, 100000, 102400},
		{Tier("unknown"), 100, 1000, 512},
	}
	for _, tt := range tests {
		caps := CapsForTier(tt.tier)
		if caps.MonthlyUploads != tt.uploads || caps.MonthlyAPIRequests != tt.api || caps.StorageLimitMB != tt.storage {
			t.Errorf("CapsForTier(%q) = %+v, want uploads=%d api=%d storage=%d",
				tt.tier, caps, tt.uploads, tt.api, tt.storage)
		}
	}
}

func TestNormalizeTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
	}{
		{"pro", TierPro},
		{" PRO ", TierPro},
		{"max", TierMax},
		{"free", TierFree},
		{"", TierFree},
		{"platinum", TierFree},
	}
	for _, tt := range tests {
		if got := NormalizeTier(tt.in); got != tt.want {
			t.Errorf("NormalizeTier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTierRank(t *testing.T) {
	if !(TierRank(TierFree) < TierRank(TierPro) && TierRank(TierPro) < TierRank(TierMax)) {
		t.Errorf("tier ranks not strictly ordered: free=%d pro=%d max=%d",
			TierRank(TierFree), TierRank(TierPro), TierRank(TierMax))
	}
}
