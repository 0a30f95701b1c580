package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/00xu00/blog/internal/models"

	"gopkg.in/yaml.v3"
)

// Scenario is a hand-written dataset, useful for demos that need known
// accounts and posts rather than random ones.
//
//	users:
//	  - username: ada
//	    email: ada@example.com
//	posts:
//	  - author: ada
//	    title: Notes on goroutines
//	    content: ...
//	    tags: [go]
//	follows:
//	  - {from: grace, to: ada}
//	likes:
//	  - {user: grace, post: Notes on goroutines}
type Scenario struct {
	Users   []ScenarioUser `yaml:"users"`
	Posts   []ScenarioPost `yaml:"posts"`
	Follows []ScenarioEdge `yaml:"follows"`
	Likes   []ScenarioLike `yaml:"likes"`
}

type ScenarioUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Bio      string `yaml:"bio"`
}

type ScenarioPost struct {
	Author   string   `yaml:"author"`
	Title    string   `yaml:"title"`
	Subtitle string   `yaml:"subtitle"`
	Content  string   `yaml:"content"`
	Tags     []string `yaml:"tags"`
	Draft    bool     `yaml:"draft"`
}

type ScenarioEdge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type ScenarioLike struct {
	User string `yaml:"user"`
	Post string `yaml:"post"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(raw)
}

// ParseScenario decodes and cross-checks a scenario document.
func ParseScenario(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	users := make(map[string]struct{}, len(sc.Users))
	for _, u := range sc.Users {
		if u.Username == "" {
			return fmt.Errorf("scenario: user without username")
		}
		if _, dup := users[u.Username]; dup {
			return fmt.Errorf("scenario: duplicate user %q", u.Username)
		}
		users[u.Username] = struct{}{}
	}
	posts := make(map[string]struct{}, len(sc.Posts))
	for _, p := range sc.Posts {
		if _, ok := users[p.Author]; !ok {
			return fmt.Errorf("scenario: post %q has unknown author %q", p.Title, p.Author)
		}
		if p.Title == "" || p.Content == "" {
			return fmt.Errorf("scenario: post by %q needs a title and content", p.Author)
		}
		posts[p.Title] = struct{}{}
	}
	for _, f := range sc.Follows {
		if _, ok := users[f.From]; !ok {
			return fmt.Errorf("scenario: follow from unknown user %q", f.From)
		}
		if _, ok := users[f.To]; !ok {
			return fmt.Errorf("scenario: follow to unknown user %q", f.To)
		}
	}
	for _, l := range sc.Likes {
		if _, ok := users[l.User]; !ok {
			return fmt.Errorf("scenario: like by unknown user %q", l.User)
		}
		if _, ok := posts[l.Post]; !ok {
			return fmt.Errorf("scenario: like of unknown post %q", l.Post)
		}
	}
	return nil
}

// ApplyScenario writes sc. Users without an email get one generated.
func (s *Seeder) ApplyScenario(ctx context.Context, sc *Scenario) (*Result, error) {
	res := &Result{}
	byName := make(map[string]*models.User, len(sc.Users))
	for _, su := range sc.Users {
		u, err := s.CreateUser(ctx, su.Username, su.Email)
		if err != nil {
			return res, fmt.Errorf("user %q: %w", su.Username, err)
		}
		if su.Bio != "" {
			u.Bio = su.Bio
			if err := s.users.Update(ctx, u); err != nil {
				return res, fmt.Errorf("user %q: %w", su.Username, err)
			}
		}
		byName[su.Username] = u
		res.Users = append(res.Users, u)
	}

	byTitle := make(map[string]*models.Post, len(sc.Posts))
	for _, sp := range sc.Posts {
		status := models.PostStatusPublished
		if sp.Draft {
			status = models.PostStatusDraft
		}
		p, err := s.CreatePost(ctx, byName[sp.Author].ID, &models.Post{
			Title:    sp.Title,
			Subtitle: sp.Subtitle,
			Content:  sp.Content,
			Tags:     sp.Tags,
			Status:   status,
		})
		if err != nil {
			return res, fmt.Errorf("post %q: %w", sp.Title, err)
		}
		byTitle[sp.Title] = p
		res.Posts = append(res.Posts, p)
	}

	for _, f := range sc.Follows {
		ok, err := tolerateConflict(s.follows.Follow(ctx, byName[f.From].ID, byName[f.To].ID))
		if err != nil {
			return res, fmt.Errorf("follow %s->%s: %w", f.From, f.To, err)
		}
		if ok {
			res.Follows++
		}
	}
	for _, l := range sc.Likes {
		ok, err := tolerateConflict(s.engage.Like(ctx, byName[l.User].ID, byTitle[l.Post].ID))
		if err != nil {
			return res, fmt.Errorf("like %s/%q: %w", l.User, l.Post, err)
		}
		if ok {
			res.Likes++
		}
	}
	return res, nil
}
