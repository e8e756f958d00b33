package assess

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"subnetier/internal/domain"
	"subnetier/internal/probe"
)

// SSHPort is the remote-shell probe port
const SSHPort = 22

// sshCommandTimeout bounds a single fact command
const sshCommandTimeout = 30 * time.Second

// SSHAssessor introspects Linux and macOS hosts over SSH. Each fact is
// gathered by an independent best-effort command; a failing query leaves
// its field null without aborting the others.
type SSHAssessor struct {
	creds   Credentials
	prober  *probe.Prober
	timeout time.Duration
	log     *zap.Logger
}

// NewSSHAssessor creates the SSH assessor with a connect timeout
func NewSSHAssessor(creds Credentials, prober *probe.Prober, timeout time.Duration, log *zap.Logger) *SSHAssessor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SSHAssessor{creds: creds, prober: prober, timeout: timeout, log: log}
}

// Method implements Assessor
func (s *SSHAssessor) Method() domain.AssessmentMethod {
	return domain.AssessSSH
}

// Assess profiles the device over SSH. Unreached when port 22 does not
// answer; Failed when the connection or authentication breaks.
func (s *SSHAssessor) Assess(ctx context.Context, dev domain.DiscoveredDevice) Outcome {
	if !s.prober.PortOpen(ctx, dev.IPAddress, SSHPort) {
		return Unreached()
	}

	client, err := s.connect(ctx, dev.IPAddress)
	if err != nil {
		return Failed(fmt.Errorf("ssh connect %s: %w", dev.IPAddress, err))
	}
	defer client.Close()

	run := func(cmd string) string {
		out, err := runSSHCommand(client, cmd)
		if err != nil {
			s.log.Debug("ssh fact query failed",
				zap.String("ip", dev.IPAddress), zap.String("cmd", cmd), zap.Error(err))
			return ""
		}
		return out
	}

	cpuOut := run("lscpu 2>/dev/null || cat /proc/cpuinfo")
	memOut := run("free -m")
	diskOut := run("df -h")
	osOut := run("cat /etc/os-release 2>/dev/null || uname -a")
	virtOut := run("grep -E 'svm|vmx' /proc/cpuinfo")
	dockerOut := run("docker --version 2>/dev/null || which docker")

	cores, arch := parseCPUInfo(cpuOut)
	name, version := parseOSRelease(osOut)

	profile := &Profile{
		Method: domain.AssessSSH,
		OperatingSystem: &domain.OperatingSystem{
			Name:    name,
			Version: version,
			Type:    domain.OSLinux,
		},
		Hardware: &domain.Hardware{
			CPU:                   domain.CPU{Cores: cores, Architecture: arch},
			Memory:                domain.Memory{TotalMB: parseMemTotalMB(memOut)},
			Storage:               parseDiskVolumes(diskOut),
			VirtualizationSupport: virtOut != "",
		},
		Software: &domain.Software{
			DockerInstalled: dockerOut != "",
		},
	}
	return Success(profile)
}

// connect dials and authenticates. The key file is preferred over a
// password when both are configured.
func (s *SSHAssessor) connect(ctx context.Context, ip string) (*ssh.Client, error) {
	config, err := s.clientConfig()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(ip, fmt.Sprintf("%d", SSHPort))
	dialer := net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

func (s *SSHAssessor) clientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	if s.creds.KeyFile != "" {
		keyData, err := os.ReadFile(s.creds.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if s.creds.Password != "" {
		auth = append(auth, ssh.Password(s.creds.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no SSH credentials configured")
	}

	return &ssh.ClientConfig{
		User:            s.creds.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         s.timeout,
	}, nil
}

// runSSHCommand executes one command in a fresh session. A non-zero exit
// still returns the output; some fact commands exit non-zero while
// printing what we need.
func runSSHCommand(client *ssh.Client, cmd string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("new session: %w", err)
	}
	defer session.Close()

	done := make(chan error, 1)
	var output []byte
	go func() {
		var runErr error
		output, runErr = session.CombinedOutput(cmd)
		done <- runErr
	}()

	select {
	case err := <-done:
		if err != nil {
			if _, ok := err.(*ssh.ExitError); ok {
				return string(output), nil
			}
			return "", fmt.Errorf("run: %w", err)
		}
		return string(output), nil
	case <-time.After(sshCommandTimeout):
		session.Signal(ssh.SIGKILL)
		return "", fmt.Errorf("command timed out")
	}
}
