// Package chat runs a conversation practice session with the local tutor model.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/errors"
)

// Completer returns a model reply to a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Fixed tutor and session lines.
const (
	MsgNoWords  = "No words in your vocabulary list. Add some words first using 'vocab add'."
	MsgFallback = "Lo siento, no entiendo. ¿Podrías repetir?"
	MsgGoodbye  = "Conversation ended. ¡Hasta luego!"
)

// historyWindow is how many history lines go into each follow-up prompt.
const historyWindow = 4

var (
	emphasisRegex = regexp.MustCompile("\\*\\*|\\*|`")
	asideRegex    = regexp.MustCompile(`\(.*?\)`)
	noteRegex     = regexp.MustCompile(`Note:.*`)
)

// Result summarizes a chat session.
type Result struct {
	Turns int `json:"turns"`
	// Practiced lists vocabulary words the learner used, in order of first use.
	Practiced []string `json:"practiced"`
}

// Session is one conversation. Not safe for concurrent use.
type Session struct {
	model   Completer
	words   []string
	in      *bufio.Reader
	out     io.Writer
	logger  *zap.Logger
	history []string

	// normalized vocabulary words already practiced
	used map[string]bool
}

// New creates a Session practising words.
func New(model Completer, words []string, in io.Reader, out io.Writer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		model:  model,
		words:  words,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
		used:   make(map[string]bool),
	}
}

// Run greets the learner and converses until "exit" or end of input.
// A model failure ends the session with an error message and is returned.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	if len(s.words) == 0 {
		fmt.Fprintln(s.out, MsgNoWords)
		return res, nil
	}

	fmt.Fprintln(s.out, "\nStarting Spanish conversation practice...")
	fmt.Fprintln(s.out, "Type 'exit' to end the session.")

	greeting, err := s.model.Complete(ctx, GreetingPrompt(s.words))
	if err != nil {
		return res, s.fail(err)
	}
	greeting = Clean(greeting)
	if greeting == "" {
		greeting = MsgFallback
	}
	fmt.Fprintf(s.out, "\nTutor: %s\n", greeting)
	s.history = append(s.history, "Tutor: "+greeting)

	for {
		fmt.Fprint(s.out, "\nYou: ")
		line, err := s.in.ReadString('\n')
		if err != nil && line == "" {
			break
		}
		input := strings.TrimSpace(line)
		if strings.EqualFold(input, "exit") {
			break
		}
		if input == "" {
			continue
		}

		s.history = append(s.history, "Student: "+input)
		res.Turns++
		s.notePracticed(input, res)

		reply, err := s.model.Complete(ctx, ReplyPrompt(s.words, s.recentHistory()))
		if err != nil {
			return res, s.fail(err)
		}

		if reply = Clean(reply); reply != "" {
			fmt.Fprintf(s.out, "\nTutor: %s\n", reply)
			s.history = append(s.history, "Tutor: "+reply)
		} else {
			fmt.Fprintf(s.out, "\nTutor: %s\n", MsgFallback)
		}
	}

	if len(res.Practiced) > 0 {
		fmt.Fprintf(s.out, "\nWords practiced: %s\n", strings.Join(res.Practiced, ", "))
	}
	fmt.Fprintf(s.out, "\n%s\n", MsgGoodbye)
	return res, nil
}

func (s *Session) fail(err error) error {
	s.logger.Error("chat model call failed", zap.Error(err))
	fmt.Fprintf(s.out, "Error: %v\n", err)
	fmt.Fprintf(s.out, "\n%s\n", MsgGoodbye)
	if errors.Is(err, errors.ErrGenerationFailed) {
		return err
	}
	return errors.NewGenerationFailed("tutor reply failed", err)
}

// notePracticed records vocabulary words found in a learner line.
// Matching ignores case and accents; phrases match on whole words.
func (s *Session) notePracticed(input string, res *Result) {
	tokens := card.ExtractWords(input)
	for i := range tokens {
		tokens[i] = card.Normalize(tokens[i])
	}
	line := " " + strings.Join(tokens, " ") + " "

	for _, w := range s.words {
		key := card.Normalize(w)
		if key == "" || s.used[key] || !strings.Contains(line, " "+key+" ") {
			continue
		}
		s.used[key] = true
		res.Practiced = append(res.Practiced, w)
	}
}

func (s *Session) recentHistory() []string {
	if len(s.history) <= historyWindow {
		return s.history
	}
	return s.history[len(s.history)-historyWindow:]
}

// Clean strips formatting and asides from a tutor reply and keeps its first line.
func Clean(reply string) string {
	reply = strings.TrimSpace(reply)
	reply = emphasisRegex.ReplaceAllString(reply, "")
	reply = asideRegex.ReplaceAllString(reply, "")
	reply = noteRegex.ReplaceAllString(reply, "")
	if i := strings.IndexByte(reply, '\n'); i >= 0 {
		reply = reply[:i]
	}
	return strings.Join(strings.Fields(reply), " ")
}

// GreetingPrompt opens the conversation.
func GreetingPrompt(words []string) string {
	return fmt.Sprintf(`You are a Spanish language tutor. The student knows these words: %s

Please have a natural conversation in Spanish, using simple sentences and the words the student knows.
Keep your responses short and clear. If the student makes a mistake, gently correct them.
If the student says they don't understand, explain in simpler terms.

Start the conversation with a simple greeting.`, strings.Join(words, ", "))
}

// ReplyPrompt continues the conversation from recent history.
func ReplyPrompt(words, history []string) string {
	return fmt.Sprintf(`You are a Spanish language tutor having a conversation with a student.
The student knows these words: %s

Previous conversation:
%s

IMPORTANT:
1. Continue the conversation naturally based on the student's last message
2. Do not start a new conversation or say hello again
3. Keep your response short and clear
4. Use only the words the student knows
5. Do not include any English translations or notes
6. Do not include any explanations or corrections unless the student asks for them

Please respond to the student's last message in Spanish.`, strings.Join(words, ", "), strings.Join(history, "\n"))
}
