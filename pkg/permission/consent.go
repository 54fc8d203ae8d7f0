package permission

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/gobdb"
	"github.com/sirupsen/logrus"
)

// Consent is what the user has told us about one permission.
type Consent struct {
	State     wifiinfo.PermissionState
	Asked     int
	UpdatedAt time.Time
}

type Answer int

const (
	AnswerDeny Answer = iota
	AnswerAllow
	AnswerNever
)

// Prompter puts a single permission question to the user.
type Prompter interface {
	Prompt(ctx context.Context, p wifiinfo.Permission) (Answer, error)
}

var _ wifiinfo.PermissionChecker = &ConsentStore{}
var _ wifiinfo.PermissionRequester = &ConsentStore{}
var _ History = &ConsentStore{}

/* ConsentStore keeps the user's answers on disk. It is both a
 * checker (what did the user say) and a requester (ask them).
 * A permission that was never asked about reads as denied.
 */
type ConsentStore struct {
	mu       sync.Mutex // held from load to save
	db       *gobdb.GobFile[map[wifiinfo.Permission]Consent]
	prompter Prompter
	log      logrus.FieldLogger
	now      func() time.Time
}

// ConsentPath is where a ConsentStore in dataDir keeps its answers.
func ConsentPath(dataDir string) string {
	return filepath.Join(dataDir, "consent.gob")
}

func NewConsentStore(dataDir string, prompter Prompter, log logrus.FieldLogger) *ConsentStore {
	return &ConsentStore{
		db:       gobdb.NewGobFile[map[wifiinfo.Permission]Consent](ConsentPath(dataDir)),
		prompter: prompter,
		log:      log.WithField("component", "consent"),
		now:      time.Now,
	}
}

func (s *ConsentStore) Path() string {
	return s.db.Path()
}

func (s *ConsentStore) List() (map[wifiinfo.Permission]Consent, error) {
	all, err := s.db.Load()
	if errors.Is(err, os.ErrNotExist) {
		return map[wifiinfo.Permission]Consent{}, nil
	}
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = map[wifiinfo.Permission]Consent{}
	}
	return all, nil
}

func (s *ConsentStore) Check(ctx context.Context, p wifiinfo.Permission) (wifiinfo.PermissionState, error) {
	all, err := s.List()
	if err != nil {
		return wifiinfo.PermissionDenied, err
	}
	c, ok := all[p]
	if !ok {
		return wifiinfo.PermissionDenied, nil
	}
	return c.State, nil
}

func (s *ConsentStore) Asked(p wifiinfo.Permission) bool {
	all, err := s.List()
	if err != nil {
		s.log.WithError(err).Warn("failed to read consent store")
		return false
	}
	return all[p].Asked > 0
}

// Set records a state directly, as from settings.
func (s *ConsentStore) Set(p wifiinfo.Permission, state wifiinfo.PermissionState) error {
	return s.update(func(all map[wifiinfo.Permission]Consent) {
		c := all[p]
		c.State = state
		c.UpdatedAt = s.now()
		all[p] = c
	})
}

// Reset forgets everything about p, so the next request prompts
// as though it were the first time.
func (s *ConsentStore) Reset(p wifiinfo.Permission) error {
	return s.update(func(all map[wifiinfo.Permission]Consent) {
		delete(all, p)
	})
}

func (s *ConsentStore) update(fn func(all map[wifiinfo.Permission]Consent)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.List()
	if err != nil {
		return err
	}
	fn(all)
	return s.db.Save(all)
}

// Request prompts for every permission that is not already settled.
// Forever-denied permissions are reported without prompting. Prompts
// run without the store locked; only the answers are written back.
func (s *ConsentStore) Request(ctx context.Context, perms ...wifiinfo.Permission) (wifiinfo.PermissionResult, error) {
	res := wifiinfo.PermissionResult{}
	all, err := s.List()
	if err != nil {
		return res, err
	}

	answers := map[wifiinfo.Permission]Answer{}
	for _, p := range perms {
		switch all[p].State {
		case wifiinfo.PermissionGranted:
			res.Accepted = append(res.Accepted, p)
			continue
		case wifiinfo.PermissionPermanentlyDenied:
			res.ForeverDenied = append(res.ForeverDenied, p)
			continue
		}

		answer, err := s.prompter.Prompt(ctx, p)
		if err != nil {
			return res, fmt.Errorf("prompting for %s: %w", p, err)
		}
		answers[p] = answer
		switch answer {
		case AnswerAllow:
			res.Accepted = append(res.Accepted, p)
		case AnswerNever:
			res.ForeverDenied = append(res.ForeverDenied, p)
		default:
			res.Denied = append(res.Denied, p)
		}
	}
	if len(answers) == 0 {
		return res, nil
	}

	err = s.update(func(all map[wifiinfo.Permission]Consent) {
		for p, answer := range answers {
			c := all[p]
			c.Asked++
			c.UpdatedAt = s.now()
			switch answer {
			case AnswerAllow:
				c.State = wifiinfo.PermissionGranted
			case AnswerNever:
				c.State = wifiinfo.PermissionPermanentlyDenied
			default:
				c.State = wifiinfo.PermissionDenied
			}
			all[p] = c
			s.log.WithField("permission", p).Infof("consent %s", c.State)
		}
	})
	return res, err
}
