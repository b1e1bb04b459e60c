package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ProfileUpdate is a partial update of the editable profile fields.
// Nil pointers are left unchanged.
type ProfileUpdate struct {
	DisplayName *string   `json:"displayName"`
	PhotoURL    *string   `json:"-"`
	Bio         *string   `json:"bio"`
	Location    *string   `json:"location"`
	Occupation  *string   `json:"occupation"`
	Skills      *[]string `json:"skills"`
	Website     *string   `json:"website"`
	Twitter     *string   `json:"twitter"`
	GitHub      *string   `json:"github"`
	Instagram   *string   `json:"instagram"`
	YouTube     *string   `json:"youtube"`
	TikTok      *string   `json:"tiktok"`
}

func (p ProfileUpdate) IsEmpty() bool {
	return len(p.SetFields(time.Time{})) == 1
}

// SetFields renders the update as a $set document; updatedAt is always included.
func (p ProfileUpdate) SetFields(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	str := map[string]*string{
		"displayName": p.DisplayName,
		"photoURL":    p.PhotoURL,
		"bio":         p.Bio,
		"location":    p.Location,
		"occupation":  p.Occupation,
		"website":     p.Website,
		"twitter":     p.Twitter,
		"github":      p.GitHub,
		"instagram":   p.Instagram,
		"youtube":     p.YouTube,
		"tiktok":      p.TikTok,
	}
	for k, v := range str {
		if v != nil {
			set[k] = *v
		}
	}
	if p.Skills != nil {
		set["skills"] = *p.Skills
	}
	return set
}

// ApplyTo mutates u in place, used by stores without a query language.
func (p ProfileUpdate) ApplyTo(u *User, now time.Time) {
	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&u.DisplayName, p.DisplayName)
	assign(&u.PhotoURL, p.PhotoURL)
	assign(&u.Bio, p.Bio)
	assign(&u.Location, p.Location)
	assign(&u.Occupation, p.Occupation)
	assign(&u.Website, p.Website)
	assign(&u.Twitter, p.Twitter)
	assign(&u.GitHub, p.GitHub)
	assign(&u.Instagram, p.Instagram)
	assign(&u.YouTube, p.YouTube)
	assign(&u.TikTok, p.TikTok)
	if p.Skills != nil {
		u.Skills = append([]string(nil), (*p.Skills)...)
	}
	u.UpdatedAt = now
}
