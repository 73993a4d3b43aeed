package models

import "time"

// NetworkNode is one customer in a spend-annotated referral subtree.
// Children are ordered by month spend descending.
type NetworkNode struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Level      string         `json:"level"`
	LeaderID   string         `json:"leaderId,omitempty"`
	MonthSpend float64        `json:"monthSpend"`
	IsActive   bool           `json:"isActive"`
	CreatedAt  time.Time      `json:"createdAt"`
	Children   []*NetworkNode `json:"children"`
}

// NetworkMember is a flattened row of the tree for the dashboard table.
type NetworkMember struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Level  string  `json:"level"`
	Spend  float64 `json:"spend"`
	Status string  `json:"status"`
}

// Goal keys, fixed list order: activation, first discount milestone, invite,
// second milestone, downline activation, third milestone, all-directs
// activation, downline replication.
const (
	GoalKeyActive            = "active"
	GoalKeyDiscount1         = "discount_1"
	GoalKeyInvite            = "invite"
	GoalKeyDiscount2         = "discount_2"
	GoalKeyNetworkOneActive  = "network_one_active"
	GoalKeyDiscount3         = "discount_3"
	GoalKeyDirectAllActive   = "direct_all_active"
	GoalKeyNetworkReplicated = "network_member_invited"
)

// Goal is one gamified progress item on the user dashboard. Exactly one
// unlocked-and-unachieved goal is primary; every other achievable goal is
// secondary.
type Goal struct {
	Key         string  `json:"key"`
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Target      float64 `json:"target"`
	Base        float64 `json:"base"`
	Achieved    bool    `json:"achieved"`
	Locked      bool    `json:"locked"`
	IsCountGoal bool    `json:"isCountGoal"`
	Primary     bool    `json:"primary"`
	Secondary   bool    `json:"secondary"`
	CtaText     string  `json:"ctaText,omitempty"`
	CtaFragment string  `json:"ctaFragment,omitempty"`
}
