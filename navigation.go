package memberauth

// Visibility controls which principals a navigation item is resolved for.
type Visibility uint8

const (
	// VisibilityPublic items appear for every visitor.
	VisibilityPublic Visibility = iota
	// VisibilityAuthenticated items appear for any authenticated principal.
	VisibilityAuthenticated
	// VisibilityRoleScoped items appear when the item's Scope matches the
	// principal's type.
	VisibilityRoleScoped
)

// NavigationItem is one entry of the resolved menu. Stateless; trees are
// recomputed on demand and never persisted.
type NavigationItem struct {
	Label      string
	Path       string
	Visibility Visibility

	// Scope is the principal type a VisibilityRoleScoped item is bound to.
	// Ignored for the other visibilities.
	Scope string
}

// Default navigation tables. The administrative groups are additive: a
// super_admin receives everything an admin receives plus its own extras,
// keeping the resolver monotonic in privilege.
var (
	defaultNavigationItems = []NavigationItem{
		{Label: "Home", Path: "/", Visibility: VisibilityPublic},
		{Label: "Clubs", Path: "/clubs", Visibility: VisibilityPublic},
		{Label: "Tournaments", Path: "/tournaments", Visibility: VisibilityPublic},
		{Label: "My Profile", Path: "/profile", Visibility: VisibilityAuthenticated},
		{Label: "Messages", Path: "/messages", Visibility: VisibilityAuthenticated},
		{Label: "My Matches", Path: "/matches", Visibility: VisibilityRoleScoped, Scope: UserTypePlayer},
		{Label: "Training", Path: "/training", Visibility: VisibilityRoleScoped, Scope: UserTypePlayer},
		{Label: "My Athletes", Path: "/athletes", Visibility: VisibilityRoleScoped, Scope: UserTypeCoach},
		{Label: "Sessions", Path: "/sessions", Visibility: VisibilityRoleScoped, Scope: UserTypeCoach},
		{Label: "Members", Path: "/members", Visibility: VisibilityRoleScoped, Scope: UserTypeClub},
		{Label: "Facilities", Path: "/facilities", Visibility: VisibilityRoleScoped, Scope: UserTypeClub},
		{Label: "Campaigns", Path: "/campaigns", Visibility: VisibilityRoleScoped, Scope: UserTypePartner},
		{Label: "Regions", Path: "/regions", Visibility: VisibilityRoleScoped, Scope: UserTypeState},
	}

	defaultAdminItems = []NavigationItem{
		{Label: "User Management", Path: "/admin/users", Visibility: VisibilityAuthenticated},
		{Label: "Club Approvals", Path: "/admin/approvals", Visibility: VisibilityAuthenticated},
		{Label: "Reports", Path: "/admin/reports", Visibility: VisibilityAuthenticated},
	}

	defaultSuperAdminItems = []NavigationItem{
		{Label: "Federation Settings", Path: "/admin/settings", Visibility: VisibilityAuthenticated},
		{Label: "Audit Log", Path: "/admin/audit", Visibility: VisibilityAuthenticated},
	}
)

// ResolveNavigation computes the menu visible to principal using the
// package default tables. A nil principal yields only public items.
//
// The result is a pure function of its input: identical principals always
// yield identical trees, and the tree for any principal is a superset of
// the anonymous tree.
func ResolveNavigation(principal *Principal) []NavigationItem {
	return resolveNavigation(principal, defaultNavigationItems, defaultAdminItems, defaultSuperAdminItems)
}

// Navigation computes the menu for the engine's current principal, applying
// any table overrides from the configuration.
func (e *Engine) Navigation() []NavigationItem {
	items := e.config.Navigation.Items
	if items == nil {
		items = defaultNavigationItems
	}
	adminItems := e.config.Navigation.AdminItems
	if adminItems == nil {
		adminItems = defaultAdminItems
	}
	superItems := e.config.Navigation.SuperAdminItems
	if superItems == nil {
		superItems = defaultSuperAdminItems
	}

	return resolveNavigation(e.Principal(), items, adminItems, superItems)
}

func resolveNavigation(principal *Principal, items, adminItems, superAdminItems []NavigationItem) []NavigationItem {
	out := make([]NavigationItem, 0, len(items))

	for _, item := range items {
		switch item.Visibility {
		case VisibilityPublic:
			out = append(out, item)
		case VisibilityAuthenticated:
			if principal != nil {
				out = append(out, item)
			}
		case VisibilityRoleScoped:
			if principal != nil && principal.UserType == item.Scope {
				out = append(out, item)
			}
		}
	}

	if principal == nil {
		return out
	}

	switch principal.Role {
	case RoleSuperAdmin:
		out = append(out, adminItems...)
		out = append(out, superAdminItems...)
	case RoleAdmin:
		out = append(out, adminItems...)
	}

	return out
}
