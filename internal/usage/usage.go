// Package usage parses the provider-reported usage snapshot stored on each
// account and derives the quota accounting used for ranking.
package usage

import "encoding/json"

// FreeTrialInfo describes promotional quota attached to a breakdown entry.
// ExpirationDate is seconds since epoch.
type FreeTrialInfo struct {
	CurrentUsage   float64 `json:"currentUsage"`
	UsageLimit     float64 `json:"usageLimit"`
	ExpirationDate int64   `json:"expirationDate,omitempty"`
}

// Breakdown is one usage-limit entry from the upstream usage report.
type Breakdown struct {
	CurrentUsage  float64        `json:"currentUsage"`
	UsageLimit    float64        `json:"usageLimit"`
	FreeTrialInfo *FreeTrialInfo `json:"freeTrialInfo,omitempty"`
}

// SubscriptionInfo mirrors the upstream subscription block.
type SubscriptionInfo struct {
	SubscriptionTitle string `json:"subscriptionTitle,omitempty"`
	OverageCapability string `json:"overageCapability,omitempty"`
	UpgradeCapability string `json:"upgradeCapability,omitempty"`
}

// UserInfo mirrors the upstream user block.
type UserInfo struct {
	UserID string `json:"userId,omitempty"`
}

// Snapshot is the last-known usage report for an account. NextDateReset is
// seconds since epoch.
type Snapshot struct {
	UsageBreakdownList []Breakdown       `json:"usageBreakdownList,omitempty"`
	UsageBreakdown     *Breakdown        `json:"usageBreakdown,omitempty"`
	SubscriptionInfo   *SubscriptionInfo `json:"subscriptionInfo,omitempty"`
	UserInfo           *UserInfo         `json:"userInfo,omitempty"`
	DaysUntilReset     int               `json:"daysUntilReset,omitempty"`
	NextDateReset      int64             `json:"nextDateReset,omitempty"`
}

// Parse decodes a stored usage snapshot. Empty or malformed input yields a
// zero snapshot so callers can always derive quota figures.
func Parse(raw string) Snapshot {
	if raw == "" {
		return Snapshot{}
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}
	}
	return snap
}

// primary returns the breakdown entry quota figures are derived from: the
// first list entry when present, else the legacy single-object field.
func (s Snapshot) primary() *Breakdown {
	if len(s.UsageBreakdownList) > 0 {
		return &s.UsageBreakdownList[0]
	}
	return s.UsageBreakdown
}

// Quota returns the total request quota including any free-trial allowance.
func (s Snapshot) Quota() int {
	b := s.primary()
	if b == nil {
		return 0
	}
	quota := b.UsageLimit
	if b.FreeTrialInfo != nil {
		quota += b.FreeTrialInfo.UsageLimit
	}
	return int(quota)
}

// Used returns the consumed request count including free-trial consumption.
func (s Snapshot) Used() int {
	b := s.primary()
	if b == nil {
		return 0
	}
	used := b.CurrentUsage
	if b.FreeTrialInfo != nil {
		used += b.FreeTrialInfo.CurrentUsage
	}
	return int(used)
}

// Remaining returns quota minus used.
func (s Snapshot) Remaining() int {
	return s.Quota() - s.Used()
}
