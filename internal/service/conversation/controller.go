package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindease/backend/internal/model/chat"
	"github.com/zhouzirui/mindease/backend/internal/service/classifier"
	"github.com/zhouzirui/mindease/backend/internal/service/moodlog"
	"github.com/zhouzirui/mindease/backend/internal/service/response"
)

// ErrInputTooLong rejects messages above the configured length limit.
var ErrInputTooLong = errors.New("message exceeds the maximum length")

// State is where a turn ended up.
type State string

const (
	StateIdle        State = "idle"
	StateClassifying State = "classifying"
	StateResponding  State = "responding"
	StateLogged      State = "logged"
	StateError       State = "error"
)

// Sessions is the part of the session store the controller depends on.
type Sessions interface {
	GetSession(ctx context.Context, sessionID string) (chat.Session, error)
	AppendMessages(ctx context.Context, sessionID string, messages ...chat.Message) ([]chat.Message, error)
}

// MoodLogger records the emotion of a successful turn.
type MoodLogger interface {
	Append(label emotion.Label) (moodlog.Entry, error)
}

// Options tune controller behaviour.
type Options struct {
	TranscriptEnabled bool
	MaxInputChars     int
	ClassifyTimeout   time.Duration
}

// Turn is the outcome of one user submission.
type Turn struct {
	SessionID string                 `json:"sessionId"`
	State     State                  `json:"state"`
	Emotion   emotion.Label          `json:"emotion,omitempty"`
	Scores    emotion.Classification `json:"scores,omitempty"`
	Reply     string                 `json:"reply,omitempty"`
	FollowUp  string                 `json:"followUp,omitempty"`
	Logged    bool                   `json:"logged"`
	Messages  []chat.Message         `json:"messages,omitempty"`

	// Err holds the cause of an error turn for operators; never shown to users.
	Err error `json:"-"`
}

// Ignored reports whether the input was blank and nothing happened.
func (t Turn) Ignored() bool {
	return t.State == StateIdle
}

// Controller runs the classify, respond, log pipeline for each turn.
type Controller struct {
	classifier classifier.Classifier
	table      response.Table
	moods      MoodLogger
	sessions   Sessions
	opts       Options
}

// NewController wires the pipeline collaborators.
func NewController(clf classifier.Classifier, table response.Table, moods MoodLogger, sessions Sessions, opts Options) *Controller {
	return &Controller{
		classifier: clf,
		table:      table,
		moods:      moods,
		sessions:   sessions,
		opts:       opts,
	}
}

// TranscriptEnabled reports whether successful turns are recorded.
func (c *Controller) TranscriptEnabled() bool {
	return c.opts.TranscriptEnabled
}

// Table returns the reply table in use.
func (c *Controller) Table() response.Table {
	return c.table
}

// HandleTurn processes one user message. Blank input is ignored. Classifier
// failures end the turn in StateError with a calm reply and no mood entry.
// The returned error is reserved for caller mistakes such as an unknown
// session or an over-long message.
func (c *Controller) HandleTurn(ctx context.Context, sessionID, text string) (Turn, error) {
	turn := Turn{SessionID: sessionID, State: StateIdle}

	if strings.TrimSpace(text) == "" {
		return turn, nil
	}
	if c.opts.MaxInputChars > 0 && utf8.RuneCountInString(text) > c.opts.MaxInputChars {
		return turn, fmt.Errorf("%w (%d characters)", ErrInputTooLong, c.opts.MaxInputChars)
	}
	if _, err := c.sessions.GetSession(ctx, sessionID); err != nil {
		return turn, err
	}

	turn.State = StateClassifying
	scores, label, err := c.classify(ctx, text)
	if err != nil {
		log.Printf("[conversation] classification failed session=%s: %v", sessionID, err)
		turn.State = StateError
		turn.Reply = c.table.Failure
		turn.Err = err
		return turn, nil
	}

	turn.State = StateResponding
	turn.Emotion = label
	turn.Scores = scores.Ranked()
	turn.Reply = c.table.Lookup(label)
	turn.FollowUp = c.table.FollowUp

	if _, err := c.moods.Append(label); err != nil {
		log.Printf("[moodlog] failed to record emotion=%s session=%s: %v", label, sessionID, err)
	} else {
		turn.Logged = true
	}
	turn.State = StateLogged

	if c.opts.TranscriptEnabled {
		stored, err := c.sessions.AppendMessages(ctx, sessionID,
			chat.Message{Role: chat.RoleUser, Content: text},
			chat.Message{Role: chat.RoleAssistant, Content: turn.Reply, Emotion: string(label)},
		)
		if err != nil {
			log.Printf("[conversation] failed to append transcript session=%s: %v", sessionID, err)
		} else {
			turn.Messages = stored
		}
	}

	return turn, nil
}

func (c *Controller) classify(ctx context.Context, text string) (emotion.Classification, emotion.Label, error) {
	if c.opts.ClassifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.ClassifyTimeout)
		defer cancel()
	}

	scores, err := c.classifier.Classify(ctx, text)
	if err != nil {
		return nil, "", err
	}
	label, err := emotion.Select(scores)
	if err != nil {
		return nil, "", err
	}
	return scores, label, nil
}
