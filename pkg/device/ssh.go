package device

import (
	"context"
	"fmt"
	"net"

	"github.com/pkg/sftp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/newtron-network/netkit/pkg/util"
)

// Older IOS and NX-OS images only offer CBC ciphers and group1/group14
// SHA-1 key exchange, so those stay in the offer after the modern ones.
var (
	sshCiphers = []string{
		"aes128-gcm@openssh.com",
		"aes256-gcm@openssh.com",
		"chacha20-poly1305@openssh.com",
		"aes128-ctr",
		"aes192-ctr",
		"aes256-ctr",
		"aes128-cbc",
		"3des-cbc",
	}
	sshKeyExchanges = []string{
		"curve25519-sha256",
		"curve25519-sha256@libssh.org",
		"ecdh-sha2-nistp256",
		"ecdh-sha2-nistp384",
		"ecdh-sha2-nistp521",
		"diffie-hellman-group14-sha256",
		"diffie-hellman-group16-sha512",
		"diffie-hellman-group-exchange-sha256",
		"diffie-hellman-group14-sha1",
		"diffie-hellman-group-exchange-sha1",
		"diffie-hellman-group1-sha1",
	}
	sshHostKeyAlgorithms = []string{
		ssh.KeyAlgoED25519,
		ssh.KeyAlgoECDSA256,
		ssh.KeyAlgoECDSA384,
		ssh.KeyAlgoECDSA521,
		ssh.KeyAlgoRSASHA512,
		ssh.KeyAlgoRSASHA256,
		ssh.KeyAlgoRSA,
	}
)

// SSHOpener opens interactive CLI sessions over SSH.
type SSHOpener struct{}

// NewSSHOpener returns the production Opener.
func NewSSHOpener() *SSHOpener {
	return &SSHOpener{}
}

// clientConfig builds the SSH client configuration for t. Host keys are not
// verified; devices are addressed from a trusted inventory.
func clientConfig(t Target) *ssh.ClientConfig {
	password := t.Password
	return &ssh.ClientConfig{
		User: t.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback:   ssh.InsecureIgnoreHostKey(),
		HostKeyAlgorithms: sshHostKeyAlgorithms,
		Timeout:           t.Timeout,
		Config: ssh.Config{
			Ciphers:      sshCiphers,
			KeyExchanges: sshKeyExchanges,
		},
	}
}

// Open dials t, starts a PTY shell and prepares it for scripted use.
func (o *SSHOpener) Open(ctx context.Context, t Target) (Session, error) {
	log := util.WithHost(t.Name, t.HostPort())
	log.Debug("Dialing")

	dialer := net.Dialer{Timeout: t.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.HostPort())
	if err != nil {
		return nil, util.NewConnectionError(t.HostPort(), err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, t.HostPort(), clientConfig(t))
	if err != nil {
		conn.Close()
		return nil, util.NewConnectionError(t.HostPort(), err)
	}
	client := ssh.NewClient(c, chans, reqs)

	sess, err := newSSHSession(ctx, client, t, log)
	if err != nil {
		client.Close()
		return nil, err
	}
	log.Debug("Session ready")
	return sess, nil
}

type sshSession struct {
	target  Target
	client  *ssh.Client
	session *ssh.Session
	sh      *shell
	log     *logrus.Entry
}

func newSSHSession(ctx context.Context, client *ssh.Client, t Target, log *logrus.Entry) (*sshSession, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, util.NewConnectionError(t.HostPort(), fmt.Errorf("new session: %w", err))
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("vt100", 200, 511, modes); err != nil {
		session.Close()
		return nil, util.NewConnectionError(t.HostPort(), fmt.Errorf("request pty: %w", err))
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, util.NewConnectionError(t.HostPort(), fmt.Errorf("stdin: %w", err))
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, util.NewConnectionError(t.HostPort(), fmt.Errorf("stdout: %w", err))
	}
	if err := session.Shell(); err != nil {
		session.Close()
		return nil, util.NewConnectionError(t.HostPort(), fmt.Errorf("start shell: %w", err))
	}

	sh := newShell(stdout, stdin, t.Timeout)
	if !t.FastMode {
		sh.settle = slowSettle
	}
	s := &sshSession{
		target:  t,
		client:  client,
		session: session,
		sh:      sh,
		log:     log,
	}
	if err := s.sh.start(ctx, t.Secret); err != nil {
		s.sh.close()
		session.Close()
		return nil, util.NewConnectionError(t.HostPort(), err)
	}
	return s, nil
}

func (s *sshSession) RunCommand(ctx context.Context, cmd string) (string, error) {
	s.log.WithField("command", cmd).Debug("Running command")
	return s.sh.exec(ctx, cmd)
}

func (s *sshSession) PushConfigLines(ctx context.Context, lines []string) (string, error) {
	s.log.WithField("lines", len(lines)).Debug("Pushing configuration")
	return s.sh.configure(ctx, lines)
}

// Upload copies data to remotePath over SFTP on the existing connection.
func (s *sshSession) Upload(ctx context.Context, data []byte, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.WithField("path", remotePath).Debug("Uploading file")

	client, err := sftp.NewClient(s.client)
	if err != nil {
		return fmt.Errorf("sftp to %s: %w", s.target.Name, err)
	}
	defer client.Close()

	f, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", remotePath, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", remotePath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", remotePath, err)
	}
	return nil
}

func (s *sshSession) Close() error {
	s.sh.close()
	s.session.Close()
	return s.client.Close()
}
