// Command subnetier runs the network discovery pipeline: scan a subnet
// for live devices, assess what was found over SSH or WinRM, and emit a
// hierarchical Ansible inventory. Each stage writes a timestamped
// artifact consumed by the next, so stages can run independently.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"subnetier/internal/artifact"
	"subnetier/internal/assess"
	"subnetier/internal/classify"
	"subnetier/internal/config"
	"subnetier/internal/discovery"
	"subnetier/internal/domain"
	"subnetier/internal/logging"
	"subnetier/internal/probe"
)

const usage = `Usage: subnetier <command> [flags]

Commands:
  discover   scan a subnet and write a discovery artifact
  assess     profile discovered devices and write an assessment artifact
  inventory  build the Ansible inventory from the latest assessment
  run        discover, assess and build the inventory in one pass

Run "subnetier <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "discover":
		err = cmdDiscover(os.Args[2:])
	case "assess":
		err = cmdAssess(os.Args[2:])
	case "inventory":
		err = cmdInventory(os.Args[2:])
	case "run":
		err = cmdRun(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stderr, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "subnetier: %v\n", err)
		os.Exit(1)
	}
}

// commonFlags registers the flags shared by every subcommand and wires
// explicitly set values into viper, keeping flag > env > default order.
func commonFlags(fs *flag.FlagSet, v *viper.Viper) {
	fs.String("artifacts", v.GetString("artifact_dir"), "artifact directory")
	fs.Int("workers", v.GetInt("workers"), "parallel worker bound")
	fs.Duration("timeout", v.GetDuration("probe_timeout"), "per-probe timeout")
	fs.String("log-level", v.GetString("logging.level"), "log level (debug|info|warn|error)")
	fs.String("log-file", v.GetString("logging.file"), "optional rotated log file")
}

var flagKeys = map[string]string{
	"artifacts":      "artifact_dir",
	"workers":        "workers",
	"timeout":        "probe_timeout",
	"log-level":      "logging.level",
	"log-file":       "logging.file",
	"subnet":         "subnet",
	"os-detection":   "os_detection",
	"snmp-community": "snmp_community",
	"lease-file":     "lease_file",
	"ssh-username":   "ssh.username",
	"ssh-password":   "ssh.password",
	"ssh-key-file":   "ssh.key_file",
	"winrm-username": "winrm.username",
	"winrm-password": "winrm.password",
	"winrm-domain":   "winrm.domain",
	"winrm-https":    "winrm.use_https",
}

// methodToggles enables or disables individual discovery methods
type methodToggles struct {
	scan *bool
	arp  *bool
	dhcp *bool
}

func discoverFlags(fs *flag.FlagSet, v *viper.Viper) *methodToggles {
	fs.String("subnet", v.GetString("subnet"), "target subnet in CIDR notation")
	fs.Bool("os-detection", v.GetBool("os_detection"), "enable nmap OS fingerprinting")
	fs.String("snmp-community", v.GetString("snmp_community"), "SNMP community for device enrichment")
	fs.String("lease-file", v.GetString("lease_file"), "DHCP lease file override")
	return &methodToggles{
		scan: fs.Bool("scan", true, "enable nmap scan discovery"),
		arp:  fs.Bool("arp", true, "enable neighbor table discovery"),
		dhcp: fs.Bool("dhcp", true, "enable DHCP lease discovery"),
	}
}

func credentialFlags(fs *flag.FlagSet, v *viper.Viper) {
	fs.String("ssh-username", v.GetString("ssh.username"), "SSH username")
	fs.String("ssh-password", v.GetString("ssh.password"), "SSH password")
	fs.String("ssh-key-file", v.GetString("ssh.key_file"), "SSH private key file")
	fs.String("winrm-username", v.GetString("winrm.username"), "WinRM username")
	fs.String("winrm-password", v.GetString("winrm.password"), "WinRM password")
	fs.String("winrm-domain", v.GetString("winrm.domain"), "WinRM NTLM domain")
	fs.Bool("winrm-https", v.GetBool("winrm.use_https"), "use the HTTPS WinRM endpoint")
}

func applyFlags(fs *flag.FlagSet, v *viper.Viper) {
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})
}

// setup loads config and builds the logger, tagging every record with a
// fresh run ID.
func setup(fs *flag.FlagSet, v *viper.Viper) (*config.Config, *zap.Logger, error) {
	applyFlags(fs, v)

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))
	return cfg, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func cmdDiscover(args []string) error {
	v := config.New()
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	commonFlags(fs, v)
	toggles := discoverFlags(fs, v)
	fs.Parse(args)

	cfg, logger, err := setup(fs, v)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Subnet == "" {
		return errors.New("discover: -subnet (or SUBNETIER_SUBNET) is required")
	}

	ctx, cancel := signalContext()
	defer cancel()

	devices, err := runDiscovery(ctx, cfg, logger, toggles)
	if err != nil {
		return err
	}

	store, err := artifact.NewStore(cfg.ArtifactDir, logger)
	if err != nil {
		return err
	}
	path, err := store.WriteDiscovery(devices, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Discovered %d devices -> %s\n", len(devices), path)
	return nil
}

func cmdAssess(args []string) error {
	v := config.New()
	fs := flag.NewFlagSet("assess", flag.ExitOnError)
	commonFlags(fs, v)
	credentialFlags(fs, v)
	input := fs.String("input", "", "discovery artifact (default: latest in artifact dir)")
	fs.Parse(args)

	cfg, logger, err := setup(fs, v)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	store, err := artifact.NewStore(cfg.ArtifactDir, logger)
	if err != nil {
		return err
	}

	in := *input
	if in == "" {
		in, err = store.Latest(artifact.DiscoveryPattern)
		if err != nil {
			return err
		}
	}
	devices, err := artifact.LoadDiscovery(in)
	if err != nil {
		return err
	}
	logger.Info("assessment input loaded",
		zap.String("path", in), zap.Int("devices", len(devices)))

	assessed := runAssessment(ctx, cfg, logger, devices)

	path, err := store.WriteAssessment(assessed, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Assessed %d of %d devices -> %s\n", len(assessed), len(devices), path)
	return nil
}

func cmdInventory(args []string) error {
	v := config.New()
	fs := flag.NewFlagSet("inventory", flag.ExitOnError)
	commonFlags(fs, v)
	input := fs.String("input", "", "assessment artifact (default: latest in artifact dir)")
	format := fs.String("format", "yml", "inventory file extension (yml|yaml|json)")
	fs.Parse(args)

	cfg, logger, err := setup(fs, v)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := artifact.NewStore(cfg.ArtifactDir, logger)
	if err != nil {
		return err
	}

	devices, in, err := loadInventoryInput(store, *input, logger)
	if err != nil {
		return err
	}
	logger.Info("inventory input loaded",
		zap.String("path", in), zap.Int("devices", len(devices)))

	tree := classify.NewBuilder(logger).Build(devices)
	path, err := store.WriteInventory(tree, time.Now(), *format)
	if err != nil {
		return err
	}

	summary := classify.Summarize(tree)
	fmt.Printf("Inventory with %d hosts (%d ungrouped, roles: %v) -> %s\n",
		summary.Hosts, summary.Ungrouped, summary.RoleNames(), path)
	return nil
}

func cmdRun(args []string) error {
	v := config.New()
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	commonFlags(fs, v)
	toggles := discoverFlags(fs, v)
	credentialFlags(fs, v)
	format := fs.String("format", "yml", "inventory file extension (yml|yaml|json)")
	fs.Parse(args)

	cfg, logger, err := setup(fs, v)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Subnet == "" {
		return errors.New("run: -subnet (or SUBNETIER_SUBNET) is required")
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := artifact.NewStore(cfg.ArtifactDir, logger)
	if err != nil {
		return err
	}

	devices, err := runDiscovery(ctx, cfg, logger, toggles)
	if err != nil {
		return err
	}
	if _, err := store.WriteDiscovery(devices, time.Now()); err != nil {
		return err
	}

	assessed := runAssessment(ctx, cfg, logger, devices)
	if _, err := store.WriteAssessment(assessed, time.Now()); err != nil {
		return err
	}

	tree := classify.NewBuilder(logger).Build(assessed)
	path, err := store.WriteInventory(tree, time.Now(), *format)
	if err != nil {
		return err
	}

	summary := classify.Summarize(tree)
	fmt.Printf("Discovered %d, assessed %d, inventory with %d hosts -> %s\n",
		len(devices), len(assessed), summary.Hosts, path)
	return nil
}

// loadInventoryInput resolves the classifier's input: an explicit path,
// else the latest assessment artifact, else the latest discovery
// artifact with the records promoted to unassessed devices.
func loadInventoryInput(store *artifact.Store, explicit string, logger *zap.Logger) ([]domain.AssessedDevice, string, error) {
	if explicit != "" {
		devices, err := artifact.LoadAssessment(explicit)
		return devices, explicit, err
	}

	if path, err := store.Latest(artifact.AssessmentPattern); err == nil {
		devices, err := artifact.LoadAssessment(path)
		return devices, path, err
	} else if !errors.Is(err, artifact.ErrNoArtifact) {
		return nil, "", err
	}

	path, err := store.Latest(artifact.DiscoveryPattern)
	if err != nil {
		return nil, "", err
	}
	logger.Warn("no assessment artifact found, building inventory from discovery data",
		zap.String("path", path))

	discovered, err := artifact.LoadDiscovery(path)
	if err != nil {
		return nil, "", err
	}
	devices := make([]domain.AssessedDevice, len(discovered))
	for i, dev := range discovered {
		devices[i] = domain.AssessedDevice{
			DiscoveredDevice: dev,
			AssessmentMethod: domain.AssessNone,
		}
	}
	return devices, path, nil
}

// runDiscovery wires the discovery engine from configuration. Disabled
// methods are never registered; methods whose backing capability is
// missing are skipped at run time instead.
func runDiscovery(ctx context.Context, cfg *config.Config, logger *zap.Logger, toggles *methodToggles) ([]domain.DiscoveredDevice, error) {
	prober := probe.New(cfg.ProbeTimeout)

	engine := discovery.NewEngine(logger)
	if *toggles.scan {
		engine.Register(discovery.NewScanMethod(discovery.DefaultScanPorts, cfg.OSDetection, logger))
	}
	if *toggles.arp {
		engine.Register(discovery.NewLinkLayerMethod(prober, cfg.Workers, logger))
	}
	if *toggles.dhcp {
		engine.Register(discovery.NewLeaseTableMethod(cfg.LeaseFile, logger))
	}
	if enricher := discovery.NewSNMPEnricher(cfg.SNMPCommunity, cfg.ProbeTimeout, logger); enricher != nil {
		engine.SetEnricher(enricher)
	}

	return engine.Run(ctx, cfg.Subnet)
}

// runAssessment wires the assessor chain from configured credentials.
// Credential-backed assessors join the chain only when their login
// material is present; the basic scan is always the last resort.
func runAssessment(ctx context.Context, cfg *config.Config, logger *zap.Logger, devices []domain.DiscoveredDevice) []domain.AssessedDevice {
	prober := probe.New(cfg.ProbeTimeout)

	var chain []assess.Assessor
	if cfg.HasSSHCredentials() {
		chain = append(chain, assess.NewSSHAssessor(assess.Credentials{
			Username: cfg.SSH.Username,
			Password: cfg.SSH.Password,
			KeyFile:  cfg.SSH.KeyFile,
		}, prober, 10*time.Second, logger))
	} else {
		logger.Warn("no SSH credentials configured, skipping ssh assessment")
	}
	if cfg.HasWinRMCredentials() {
		chain = append(chain, assess.NewWinRMAssessor(assess.Credentials{
			Username: cfg.WinRM.Username,
			Password: cfg.WinRM.Password,
			Domain:   cfg.WinRM.Domain,
			UseHTTPS: cfg.WinRM.UseHTTPS,
		}, prober, 10*time.Second, logger))
	} else {
		logger.Warn("no WinRM credentials configured, skipping winrm assessment")
	}
	chain = append(chain, assess.NewBasicScanAssessor(prober, logger))

	engine := assess.NewEngine(chain, cfg.Workers, logger)
	logger.Info("assessment chain ready", zap.String("chain", engine.ChainString()))
	return engine.Run(ctx, devices)
}
