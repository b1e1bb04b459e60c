// Package memstore is an in-process implementation of the repositories
// interfaces. It backs STORE=memory runs and the handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"linkrite/models"
	"linkrite/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// New returns a fresh set of stores sharing nothing with any other call.
func New() *repositories.Stores {
	return &repositories.Stores{
		Users:        &userStore{byID: map[primitive.ObjectID]*models.User{}},
		Earn:         &earnStore{byID: map[primitive.ObjectID]*models.EarnPost{}},
		Applications: &applicationStore{byID: map[primitive.ObjectID]*models.Application{}},
		Feed:         &feedStore{byID: map[primitive.ObjectID]*models.FeedPost{}},
		DM:           &dmStore{rooms: map[primitive.ObjectID]*models.DMRoom{}},
		Learn:        &learnStore{},
		Push:         &pushStore{byUser: map[primitive.ObjectID]*models.PushSubscription{}},
	}
}

// ---- users ----

type userStore struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]*models.User
}

func (s *userStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.byID {
		if (u.Email != "" && o.Email == u.Email) ||
			(u.GoogleID != "" && o.GoogleID == u.GoogleID) ||
			(u.FirebaseUID != "" && o.FirebaseUID == u.FirebaseUID) {
			return repositories.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *userStore) find(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *userStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id })
}

func (s *userStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return email != "" && u.Email == email })
}

func (s *userStore) FindByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return googleID != "" && u.GoogleID == googleID })
}

func (s *userStore) FindByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return uid != "" && u.FirebaseUID == uid })
}

func (s *userStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[primitive.ObjectID]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.byID[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *userStore) UpdateProfile(_ context.Context, id primitive.ObjectID, upd models.ProfileUpdate, now time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	upd.ApplyTo(u, now)
	cp := *u
	return &cp, nil
}

func (s *userStore) UpdateSignIn(_ context.Context, id primitive.ObjectID, upd models.SignInUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if upd.AuthProvider != "" {
		u.AuthProvider = upd.AuthProvider
	}
	if upd.GoogleID != "" {
		u.GoogleID = upd.GoogleID
	}
	if upd.FirebaseUID != "" {
		u.FirebaseUID = upd.FirebaseUID
	}
	if upd.PhotoURL != "" {
		u.PhotoURL = upd.PhotoURL
	}
	u.LastSeen = upd.At
	u.UpdatedAt = upd.At
	cp := *u
	return &cp, nil
}

// ---- earn ----

type earnStore struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]*models.EarnPost
}

func (s *earnStore) Create(_ context.Context, p *models.EarnPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	s.byID[p.ID] = &cp
	return nil
}

func (s *earnStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.EarnPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *earnStore) List(_ context.Context, f models.EarnFilter) ([]models.EarnPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(f.Query)
	out := []models.EarnPost{}
	for _, p := range s.byID {
		if q != "" && !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		if f.Platform != "" && p.Platform != f.Platform {
			continue
		}
		if !f.AuthorID.IsZero() && p.AuthorID != f.AuthorID {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

func (s *earnStore) Update(_ context.Context, id primitive.ObjectID, upd models.EarnUpdate, now time.Time) (*models.EarnPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	upd.ApplyTo(p, now)
	cp := *p
	return &cp, nil
}

func (s *earnStore) AddPayout(_ context.Context, id primitive.ObjectID, amount int64, now time.Time) (*models.EarnPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p.PaidOut += amount
	p.UpdatedAt = now
	cp := *p
	return &cp, nil
}

func (s *earnStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// ---- applications ----

type applicationStore struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]*models.Application
}

func (s *applicationStore) Create(_ context.Context, a *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.byID {
		if o.PostID == a.PostID && o.ApplicantID == a.ApplicantID {
			return repositories.ErrDuplicate
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	cp := *a
	s.byID[a.ID] = &cp
	return nil
}

func (s *applicationStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *applicationStore) FindByPostAndApplicant(_ context.Context, postID, applicantID primitive.ObjectID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.byID {
		if a.PostID == postID && a.ApplicantID == applicantID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *applicationStore) list(match func(*models.Application) bool) []models.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Application{}
	for _, a := range s.byID {
		if match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].AppliedAt, out[i].ID, out[j].AppliedAt, out[j].ID)
	})
	return out
}

func (s *applicationStore) ListByPost(_ context.Context, postID primitive.ObjectID) ([]models.Application, error) {
	return s.list(func(a *models.Application) bool { return a.PostID == postID }), nil
}

func (s *applicationStore) ListByApplicant(_ context.Context, applicantID primitive.ObjectID) ([]models.Application, error) {
	return s.list(func(a *models.Application) bool { return a.ApplicantID == applicantID }), nil
}

func (s *applicationStore) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to models.ApplicationStatus, at time.Time) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if a.Status != from {
		return nil, repositories.ErrStale
	}
	a.Status = to
	a.UpdatedAt = at
	cp := *a
	return &cp, nil
}

func (s *applicationStore) DeletePending(_ context.Context, id, applicantID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if a.ApplicantID != applicantID || a.Status != models.StatusPending {
		return repositories.ErrStale
	}
	delete(s.byID, id)
	return nil
}

func (s *applicationStore) DeleteByPost(_ context.Context, postID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, a := range s.byID {
		if a.PostID == postID {
			delete(s.byID, id)
			n++
		}
	}
	return n, nil
}

// ---- feed ----

type feedStore struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]*models.FeedPost
}

func copyFeedPost(p *models.FeedPost) models.FeedPost {
	cp := *p
	cp.Likes = append([]primitive.ObjectID{}, p.Likes...)
	cp.Comments = append([]models.Comment{}, p.Comments...)
	return cp
}

func (s *feedStore) Create(_ context.Context, p *models.FeedPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := copyFeedPost(p)
	s.byID[p.ID] = &cp
	return nil
}

func (s *feedStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.FeedPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := copyFeedPost(p)
	return &cp, nil
}

func (s *feedStore) List(_ context.Context, after *repositories.Cursor, limit int) ([]models.FeedPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]models.FeedPost, 0, len(s.byID))
	for _, p := range s.byID {
		if after != nil && !after.Before(p.CreatedAt, p.ID) {
			continue
		}
		all = append(all, copyFeedPost(p))
	}
	sort.Slice(all, func(i, j int) bool {
		return newer(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *feedStore) ToggleLike(_ context.Context, id, uid primitive.ObjectID) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return false, 0, repositories.ErrNotFound
	}
	liked := !p.LikedBy(uid)
	if liked {
		p.Likes = append(p.Likes, uid)
	} else {
		kept := p.Likes[:0]
		for _, l := range p.Likes {
			if l != uid {
				kept = append(kept, l)
			}
		}
		p.Likes = kept
	}
	p.LikeCount = len(p.Likes)
	return liked, p.LikeCount, nil
}

func (s *feedStore) AddComment(_ context.Context, id primitive.ObjectID, c models.Comment) (*models.FeedPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p.Comments = append(p.Comments, c)
	p.CommentCount = len(p.Comments)
	cp := copyFeedPost(p)
	return &cp, nil
}

// ---- direct messages ----

type dmStore struct {
	mu       sync.RWMutex
	rooms    map[primitive.ObjectID]*models.DMRoom
	messages []models.Message
}

func copyRoom(r *models.DMRoom) models.DMRoom {
	cp := *r
	cp.Members = append([]primitive.ObjectID{}, r.Members...)
	cp.UnreadCount = make(map[string]int, len(r.UnreadCount))
	for k, v := range r.UnreadCount {
		cp.UnreadCount[k] = v
	}
	if r.LastMessageAt != nil {
		t := *r.LastMessageAt
		cp.LastMessageAt = &t
	}
	return cp
}

// ResolveRoom scans the rooms containing a for one that also contains b.
func (s *dmStore) ResolveRoom(_ context.Context, a, b primitive.ObjectID, now time.Time) (*models.DMRoom, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.HasMember(a) && r.HasMember(b) {
			cp := copyRoom(r)
			return &cp, false, nil
		}
	}
	r := &models.DMRoom{
		ID:          primitive.NewObjectID(),
		Members:     []primitive.ObjectID{a, b},
		MemberKey:   models.MemberKey(a, b),
		UnreadCount: map[string]int{a.Hex(): 0, b.Hex(): 0},
		CreatedAt:   now,
	}
	s.rooms[r.ID] = r
	cp := copyRoom(r)
	return &cp, true, nil
}

func (s *dmStore) FindRoom(_ context.Context, id primitive.ObjectID) (*models.DMRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := copyRoom(r)
	return &cp, nil
}

func (s *dmStore) ListRooms(_ context.Context, uid primitive.ObjectID) ([]models.DMRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.DMRoom{}
	for _, r := range s.rooms {
		if r.HasMember(uid) {
			out = append(out, copyRoom(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].SortKey(), out[i].ID, out[j].SortKey(), out[j].ID)
	})
	return out, nil
}

func (s *dmStore) AppendMessage(_ context.Context, m *models.Message, recipient primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[m.RoomID]
	if !ok {
		return repositories.ErrNotFound
	}
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	s.messages = append(s.messages, *m)

	at := m.CreatedAt
	r.LastMessage = m.Text
	r.LastMessageAt = &at
	r.LastMessageSender = m.SenderID
	if r.UnreadCount == nil {
		r.UnreadCount = map[string]int{}
	}
	r.UnreadCount[recipient.Hex()]++
	return nil
}

func (s *dmStore) ListMessages(_ context.Context, roomID primitive.ObjectID) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *dmStore) MarkRead(_ context.Context, roomID, uid primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return repositories.ErrNotFound
	}
	if r.UnreadCount == nil {
		r.UnreadCount = map[string]int{}
	}
	r.UnreadCount[uid.Hex()] = 0
	return nil
}

// ---- learn ----

type learnStore struct {
	mu    sync.RWMutex
	posts []models.LearnPost
}

func (s *learnStore) Create(_ context.Context, p *models.LearnPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.posts = append(s.posts, *p)
	return nil
}

func (s *learnStore) List(_ context.Context) ([]models.LearnPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.LearnPost{}, s.posts...)
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

// ---- push ----

type pushStore struct {
	mu     sync.RWMutex
	byUser map[primitive.ObjectID]*models.PushSubscription
}

func (s *pushStore) Upsert(_ context.Context, sub *models.PushSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sub
	if existing, ok := s.byUser[sub.UserID]; ok {
		cp.ID = existing.ID
	} else if cp.ID.IsZero() {
		cp.ID = primitive.NewObjectID()
	}
	s.byUser[sub.UserID] = &cp
	return nil
}

func (s *pushStore) FindByUser(_ context.Context, uid primitive.ObjectID) (*models.PushSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.byUser[uid]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *pushStore) DeleteByUser(_ context.Context, uid primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, uid)
	return nil
}

// newer orders newest first with the id as a tiebreak, matching the Mongo sort.
func newer(at time.Time, id primitive.ObjectID, bt time.Time, bid primitive.ObjectID) bool {
	if at.Equal(bt) {
		return id.Hex() > bid.Hex()
	}
	return at.After(bt)
}
