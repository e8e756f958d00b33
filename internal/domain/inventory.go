package domain

// Role is a functional classification inferred heuristically per device.
// Each role maps to exactly one tier; RoleUngrouped maps to none.
type Role string

const (
	RoleNetwork             Role = "network"
	RoleStorage             Role = "storage"
	RoleSecurity            Role = "security"
	RoleVirtualization      Role = "virtualization"
	RoleAutomation          Role = "automation"
	RoleMonitoring          Role = "monitoring"
	RoleIdentity            Role = "identity"
	RoleSecrets             Role = "secrets"
	RoleBusiness            Role = "business"
	RoleMedia               Role = "media"
	RoleCloud               Role = "cloud"
	RoleAI                  Role = "ai"
	RoleGaming              Role = "gaming"
	RoleSecuritySpecialized Role = "security_specialized"
	RoleUngrouped           Role = "ungrouped"
)

// Tier group names, in tree order
const (
	TierCore        = "tier1_core"
	TierServices    = "tier2_services"
	TierApps        = "tier3_applications"
	TierSpecialized = "tier4_specialized"
)

// TierRoles lists the fixed role groups under each tier. This mapping is
// structural metadata, not derived from device data.
var TierRoles = map[string][]Role{
	TierCore:        {RoleNetwork, RoleStorage, RoleSecurity, RoleVirtualization},
	TierServices:    {RoleAutomation, RoleMonitoring, RoleIdentity, RoleSecrets},
	TierApps:        {RoleBusiness, RoleMedia, RoleCloud},
	TierSpecialized: {RoleAI, RoleGaming, RoleSecuritySpecialized},
}

// TierOrder fixes the serialization order of the tier groups
var TierOrder = []string{TierCore, TierServices, TierApps, TierSpecialized}

// OSFamilies lists the fixed OS-family groups under os_types
var OSFamilies = []OSType{OSLinux, OSWindows, OSMacOS, OSNetworkDevices, OSOther}

// TierOf returns the tier a role belongs to, or "" for RoleUngrouped and
// unknown roles.
func TierOf(role Role) string {
	for tier, roles := range TierRoles {
		for _, r := range roles {
			if r == role {
				return tier
			}
		}
	}
	return ""
}

// HostVars is the variable mapping emitted for one host
type HostVars map[string]any

// HostGroup maps normalized hostname to host variables
type HostGroup struct {
	Hosts map[string]HostVars `json:"hosts" yaml:"hosts"`
}

// GroupSet is a named collection of child groups
type GroupSet struct {
	Children map[string]*HostGroup `json:"children" yaml:"children"`
}

// InventoryTree is the final hierarchical inventory artifact. The shape is
// fixed: ungrouped, four tiers with their role groups, and an os_types axis.
// A host appears in exactly one OS-family group and in at most one role
// group; devices with no inferred role land in ungrouped instead of a
// role group.
type InventoryTree struct {
	All InventoryRoot `json:"all" yaml:"all"`
}

// InventoryRoot holds the children groups and global vars
type InventoryRoot struct {
	Children InventoryChildren `json:"children" yaml:"children"`
	Vars     map[string]any    `json:"vars" yaml:"vars"`
}

// InventoryChildren pins the fixed top-level group layout
type InventoryChildren struct {
	Ungrouped *HostGroup `json:"ungrouped" yaml:"ungrouped"`
	Tier1     *GroupSet  `json:"tier1_core" yaml:"tier1_core"`
	Tier2     *GroupSet  `json:"tier2_services" yaml:"tier2_services"`
	Tier3     *GroupSet  `json:"tier3_applications" yaml:"tier3_applications"`
	Tier4     *GroupSet  `json:"tier4_specialized" yaml:"tier4_specialized"`
	OSTypes   *GroupSet  `json:"os_types" yaml:"os_types"`
}

// NewInventoryTree builds the empty fixed-shape tree with global vars set
func NewInventoryTree() *InventoryTree {
	tier := func(name string) *GroupSet {
		gs := &GroupSet{Children: make(map[string]*HostGroup)}
		for _, role := range TierRoles[name] {
			gs.Children[string(role)] = &HostGroup{Hosts: make(map[string]HostVars)}
		}
		return gs
	}

	osTypes := &GroupSet{Children: make(map[string]*HostGroup)}
	for _, fam := range OSFamilies {
		osTypes.Children[string(fam)] = &HostGroup{Hosts: make(map[string]HostVars)}
	}

	return &InventoryTree{
		All: InventoryRoot{
			Children: InventoryChildren{
				Ungrouped: &HostGroup{Hosts: make(map[string]HostVars)},
				Tier1:     tier(TierCore),
				Tier2:     tier(TierServices),
				Tier3:     tier(TierApps),
				Tier4:     tier(TierSpecialized),
				OSTypes:   osTypes,
			},
			Vars: map[string]any{
				"ansible_python_interpreter": "auto",
				"ansible_ssh_common_args":    "-o StrictHostKeyChecking=no",
			},
		},
	}
}

// TierGroup returns the group set for a tier name, or nil
func (t *InventoryTree) TierGroup(tier string) *GroupSet {
	switch tier {
	case TierCore:
		return t.All.Children.Tier1
	case TierServices:
		return t.All.Children.Tier2
	case TierApps:
		return t.All.Children.Tier3
	case TierSpecialized:
		return t.All.Children.Tier4
	}
	return nil
}

// RoleGroup returns the host group for a role, or nil for ungrouped/unknown
func (t *InventoryTree) RoleGroup(role Role) *HostGroup {
	gs := t.TierGroup(TierOf(role))
	if gs == nil {
		return nil
	}
	return gs.Children[string(role)]
}

// OSGroup returns the host group for an OS family, or nil
func (t *InventoryTree) OSGroup(fam OSType) *HostGroup {
	return t.All.Children.OSTypes.Children[string(fam)]
}
