package entitlements

import "strings"

type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
	TierMax  Tier = "max"
)

// Caps holds the monthly quota defaults for a tier.
type Caps struct {
	MonthlyUploads     int
	MonthlyAPIRequests int
	StorageLimitMB     int
}

// CapsForTier returns the quota defaults a tier grants per billing period.
func CapsForTier(tier Tier) Caps {
	switch tier {
	case TierMax:
		return Caps{MonthlyUploads: 10000, MonthlyAPIRequests: 100000, StorageLimitMB: 102400}
	case TierPro:
		return Caps{MonthlyUploads: 2000, MonthlyAPIRequests: 20000, StorageLimitMB: 10240}
	default:
		return Caps{MonthlyUploads: 100, MonthlyAPIRequests: 1000, StorageLimitMB: 512}
	}
}

// NormalizeTier maps arbitrary input to a known tier, defaulting to free.
func NormalizeTier(tier string) Tier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case string(TierPro):
		return TierPro
	case string(TierMax):
		return TierMax
	default:
		return TierFree
	}
}

func TierRank(tier Tier) int {
	switch tier {
	case TierMax:
		return 2
	case TierPro:
		return 1
	default:
		return 0
	}
}
