package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var Platforms = []string{"YouTube", "TikTok", "Instagram", "X", "Other"}

const DefaultPlatform = "Other"

func IsPlatform(p string) bool {
	for _, v := range Platforms {
		if v == p {
			return true
		}
	}
	return false
}

type EarnPost struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	Budget         int64              `bson:"budget" json:"budget"`
	TotalBudget    int64              `bson:"totalBudget" json:"totalBudget"`
	PaidOut        int64              `bson:"paidOut" json:"paidOut"`
	Platform       string             `bson:"platform" json:"platform"`
	Reward         string             `bson:"reward" json:"reward"`
	AuthorID       primitive.ObjectID `bson:"authorId" json:"authorId"`
	AuthorName     string             `bson:"authorName" json:"authorName"`
	AuthorPhotoURL string             `bson:"authorPhotoURL" json:"authorPhotoURL"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProgressTotal is the amount payout progress is measured against. Posts
// stored without totalBudget fall back to budget.
func (p *EarnPost) ProgressTotal() int64 {
	if p.TotalBudget > 0 {
		return p.TotalBudget
	}
	return p.Budget
}

// EarnUpdate is a partial edit of an earn post. Setting Budget also resets TotalBudget.
type EarnUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Budget      *int64  `json:"budget"`
	Platform    *string `json:"platform"`
	Reward      *string `json:"reward"`
}

func (u EarnUpdate) ApplyTo(p *EarnPost, now time.Time) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Budget != nil {
		p.Budget = *u.Budget
		p.TotalBudget = *u.Budget
	}
	if u.Platform != nil {
		p.Platform = *u.Platform
	}
	if u.Reward != nil {
		p.Reward = *u.Reward
	}
	p.UpdatedAt = now
}

// EarnFilter narrows the earn board listing. Zero values match everything.
type EarnFilter struct {
	Query    string
	Platform string
	AuthorID primitive.ObjectID
}
