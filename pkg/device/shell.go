package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/newtron-network/netkit/pkg/util"
)

var (
	// router#, router>, RP/0/RP0/CPU0:xr1#, sw1(config-if)#
	promptRegexp   = regexp.MustCompile(`[\w.\-@/:]+(?:\([\w.\-@/:]+\))?[>#]\s*$`)
	passwordRegexp = regexp.MustCompile(`(?i)password:\s*$`)
	enableRegexp   = regexp.MustCompile(promptRegexp.String() + `|` + passwordRegexp.String())

	ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)
)

// errPromptTimeout is returned when the device stops sending output before
// a prompt is seen.
var errPromptTimeout = errors.New("timed out waiting for prompt")

// autoAnswer replies to a confirmation prompt the device prints mid-command.
type autoAnswer struct {
	match *regexp.Regexp
	reply string
	strip bool // remove the prompt text from the captured output
}

var autoAnswers = []autoAnswer{
	{match: regexp.MustCompile(`(?i)-+\s*more\s*-+\s*$`), reply: " ", strip: true},
	{match: regexp.MustCompile(`\[yes/no\]\s*(?:\[\w+\])?\s*[:?]?\s*$`), reply: "yes\n"},
	{match: regexp.MustCompile(`\(yes/no(?:/abort)?\)\s*(?:\[\w+\])?\s*[:?]?\s*$`), reply: "yes\n"},
	{match: regexp.MustCompile(`\[confirm\]\s*$`), reply: "\n"},
	{match: regexp.MustCompile(`(?:Destination|Delete) filename \[[^\]]*\]\?\s*$`), reply: "\n"},
}

// Lines containing one of these mean the device refused the command.
var errorMarkers = []string{
	"% Invalid input",
	"% Invalid command",
	"% Incomplete command",
	"% Ambiguous command",
	"% Unknown command",
	"% Failed to commit",
	"% Error",
	"Syntax error while parsing",
}

// shell drives an interactive CLI over a reader/writer pair, normally the
// stdout and stdin of an SSH PTY.
type shell struct {
	w       io.Writer
	chunks  chan []byte
	done    chan struct{}
	readErr error
	timeout time.Duration
	settle  time.Duration // quiet period required after a prompt; zero in fast mode
	prompt  string
}

// slowSettle is the quiet period used when fast_cli is off.
const slowSettle = 500 * time.Millisecond

// newShell starts pumping r. timeout is an idle timeout: every chunk of
// output received restarts it.
func newShell(r io.Reader, w io.Writer, timeout time.Duration) *shell {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s := &shell{
		w:       w,
		chunks:  make(chan []byte, 16),
		done:    make(chan struct{}),
		timeout: timeout,
	}
	go s.pump(r)
	return s
}

func (s *shell) pump(r io.Reader) {
	defer close(s.chunks)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.chunks <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			s.readErr = err
			return
		}
	}
}

func (s *shell) close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// readUntil collects output until its last line matches until, answering
// confirmation prompts on the way. With a settle period the match only
// counts once the device has stayed quiet that long.
func (s *shell) readUntil(ctx context.Context, until *regexp.Regexp) (string, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	var out string
	var quiet <-chan time.Time
	answeredAt := -1
	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-timer.C:
			return out, fmt.Errorf("%w after %s", errPromptTimeout, s.timeout)
		case <-quiet:
			return out, nil
		case chunk, ok := <-s.chunks:
			if !ok {
				if quiet != nil {
					return out, nil
				}
				err := s.readErr
				if err == nil || err == io.EOF {
					err = io.ErrUnexpectedEOF
				}
				return out, fmt.Errorf("session closed: %w", err)
			}
			timer.Reset(s.timeout)
			quiet = nil
			out += normalize(chunk)

			tailStart := strings.LastIndex(out, "\n") + 1
			tail := out[tailStart:]
			if until.MatchString(tail) {
				if s.settle <= 0 {
					return out, nil
				}
				quiet = time.After(s.settle)
				continue
			}
			if tailStart == answeredAt {
				continue
			}
			for _, a := range autoAnswers {
				if !a.match.MatchString(tail) {
					continue
				}
				if a.strip {
					out = out[:tailStart]
				} else {
					answeredAt = tailStart
				}
				if _, err := io.WriteString(s.w, a.reply); err != nil {
					return out, fmt.Errorf("answering prompt: %w", err)
				}
				break
			}
		}
	}
}

// run sends cmd and returns its cleaned output.
func (s *shell) run(ctx context.Context, cmd string) (string, error) {
	if _, err := io.WriteString(s.w, cmd+"\n"); err != nil {
		return "", util.NewCommandError(cmd, "", err)
	}
	raw, err := s.readUntil(ctx, promptRegexp)
	out := cleanOutput(raw, cmd)
	if err != nil {
		return out, util.NewCommandError(cmd, out, err)
	}
	s.prompt = strings.TrimSpace(lastLine(raw))
	return out, nil
}

// exec is run plus error-marker detection.
func (s *shell) exec(ctx context.Context, cmd string) (string, error) {
	out, err := s.run(ctx, cmd)
	if err != nil {
		return out, err
	}
	if err := checkErrors(cmd, out); err != nil {
		return out, err
	}
	return out, nil
}

// start waits for the login prompt, enters privileged mode when needed and
// disables paging.
func (s *shell) start(ctx context.Context, secret string) error {
	out, err := s.readUntil(ctx, promptRegexp)
	if err != nil {
		return fmt.Errorf("waiting for initial prompt: %w", err)
	}
	s.prompt = strings.TrimSpace(lastLine(out))

	if strings.HasSuffix(s.prompt, ">") {
		if err := s.enable(ctx, secret); err != nil {
			return err
		}
	}

	for _, cmd := range []string{"terminal length 0", "terminal width 511"} {
		if _, err := s.exec(ctx, cmd); err != nil {
			if errors.Is(err, util.ErrCommand) && !isTransportError(err) {
				util.Debugf("ignoring %q failure: %v", cmd, err)
				continue
			}
			return err
		}
	}
	return nil
}

func (s *shell) enable(ctx context.Context, secret string) error {
	if _, err := io.WriteString(s.w, "enable\n"); err != nil {
		return util.NewCommandError("enable", "", err)
	}
	out, err := s.readUntil(ctx, enableRegexp)
	if err != nil {
		return util.NewCommandError("enable", "", err)
	}
	if passwordRegexp.MatchString(lastLine(out)) {
		if secret == "" {
			return util.NewCommandError("enable", "", errors.New("device asks for an enable secret and none is configured"))
		}
		if _, err := io.WriteString(s.w, secret+"\n"); err != nil {
			return util.NewCommandError("enable", "", err)
		}
		if out, err = s.readUntil(ctx, promptRegexp); err != nil {
			return util.NewCommandError("enable", "", err)
		}
	}
	s.prompt = strings.TrimSpace(lastLine(out))
	if !strings.HasSuffix(s.prompt, "#") {
		return util.NewCommandError("enable", "", errors.New("still in user exec mode, check the enable secret"))
	}
	return nil
}

// configure runs lines in configuration mode and returns the transcript.
func (s *shell) configure(ctx context.Context, lines []string) (string, error) {
	var transcript strings.Builder
	record := func(prompt, cmd, out string) {
		transcript.WriteString(prompt + cmd + "\n")
		if out != "" {
			transcript.WriteString(out + "\n")
		}
	}

	prompt := s.prompt
	out, err := s.exec(ctx, "configure terminal")
	record(prompt, "configure terminal", out)
	if err != nil {
		return transcript.String(), err
	}

	for _, line := range lines {
		prompt = s.prompt
		out, err := s.exec(ctx, line)
		record(prompt, line, out)
		if err != nil {
			if !isTransportError(err) {
				prompt = s.prompt
				endOut, _ := s.run(ctx, "end")
				record(prompt, "end", endOut)
			}
			return transcript.String(), err
		}
	}

	prompt = s.prompt
	out, err = s.exec(ctx, "end")
	record(prompt, "end", out)
	return transcript.String(), err
}

// isTransportError reports whether err means the session itself is gone
// rather than the device rejecting a command.
func isTransportError(err error) bool {
	return errors.Is(err, errPromptTimeout) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// checkErrors returns a CommandError for the first line carrying an error marker.
func checkErrors(cmd, out string) error {
	for _, line := range strings.Split(out, "\n") {
		for _, marker := range errorMarkers {
			if strings.Contains(line, marker) {
				return util.NewCommandError(cmd, strings.TrimSpace(line), nil)
			}
		}
	}
	return nil
}

// cleanOutput drops the echoed command, the trailing prompt and surrounding
// blank lines.
func cleanOutput(raw, cmd string) string {
	lines := strings.Split(raw, "\n")
	if n := len(lines); n > 0 && promptRegexp.MatchString(lines[n-1]) {
		lines = lines[:n-1]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) > 0 && cmd != "" && strings.HasSuffix(strings.TrimSpace(lines[0]), cmd) {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

// normalize strips terminal control sequences and carriage returns.
func normalize(chunk []byte) string {
	s := ansiRegexp.ReplaceAllString(string(chunk), "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.NewReplacer("\r", "", "\b", "").Replace(s)
}

func lastLine(s string) string {
	return s[strings.LastIndex(s, "\n")+1:]
}
