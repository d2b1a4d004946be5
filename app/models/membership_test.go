package models

import (
	"testing"
	"time"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  string
		endDate time.Time
		want    string
	}{
		{name: "active within period", status: MembershipStatusActive, endDate: now.Add(24 * time.Hour), want: MembershipStatusActive},
		{name: "active past end date", status: MembershipStatusActive, endDate: now.Add(-time.Minute), want: MembershipStatusExpired},
		{name: "past_due past end date", status: MembershipStatusPastDue, endDate: now.Add(-time.Hour), want: MembershipStatusExpired},
		{name: "cancelled within paid period", status: MembershipStatusCancelled, endDate: now.Add(24 * time.Hour), want: MembershipStatusCancelled},
		{name: "cancelled past end date", status: MembershipStatusCancelled, endDate: now.Add(-time.Hour), want: MembershipStatusExpired},
		{name: "suspended never expires on read", status: MembershipStatusSuspended, endDate: now.Add(-time.Hour), want: MembershipStatusSuspended},
		{name: "pending untouched", status: MembershipStatusPending, endDate: now.Add(-time.Hour), want: MembershipStatusPending},
		{name: "active with zero end date", status: MembershipStatusActive, want: MembershipStatusActive},
	}
	for _, tt := range tests {
		m := Membership{Status: tt.status, EndDate: tt.endDate}
		if got := m.EffectiveStatus(now); got != tt.want {
			t.Errorf("%s: EffectiveStatus = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIsEntitled(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name    string
		status  string
		endDate time.Time
		want    bool
	}{
		{name: "active", status: MembershipStatusActive, endDate: future, want: true},
		{name: "past_due keeps access during dunning", status: MembershipStatusPastDue, endDate: future, want: true},
		{name: "suspended", status: MembershipStatusSuspended, endDate: future, want: false},
		{name: "cancelled", status: MembershipStatusCancelled, endDate: future, want: false},
		{name: "active but lapsed", status: MembershipStatusActive, endDate: past, want: false},
		{name: "pending", status: MembershipStatusPending, endDate: future, want: false},
	}
	for _, tt := range tests {
		m := Membership{Status: tt.status, EndDate: tt.endDate}
		if got := m.IsEntitled(now); got != tt.want {
			t.Errorf("%s: IsEntitled = %v, want %v", tt.name, got, tt.want)
		}
	}
}
