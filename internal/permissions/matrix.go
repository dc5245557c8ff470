package permissions

// Action is one of the four per-module permissions.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// ActionSet is one matrix cell.
type ActionSet struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

func (a ActionSet) Allows(action Action) bool {
	switch action {
	case ActionView:
		return a.View
	case ActionCreate:
		return a.Create
	case ActionEdit:
		return a.Edit
	case ActionDelete:
		return a.Delete
	default:
		return false
	}
}

// With returns a copy of the set with one action toggled.
func (a ActionSet) With(action Action, value bool) ActionSet {
	switch action {
	case ActionView:
		a.View = value
	case ActionCreate:
		a.Create = value
	case ActionEdit:
		a.Edit = value
	case ActionDelete:
		a.Delete = value
	}

	return a
}

func FullAccess() ActionSet {
	return ActionSet{View: true, Create: true, Edit: true, Delete: true}
}

func ViewOnly() ActionSet {
	return ActionSet{View: true}
}

func NoAccess() ActionSet {
	return ActionSet{}
}

// Matrix maps role -> module -> cell.
type Matrix map[Role]map[Module]ActionSet

// Cell returns the stored cell and whether an entry exists.
func (m Matrix) Cell(role Role, module Module) (ActionSet, bool) {
	row, ok := m[role]
	if !ok {
		return ActionSet{}, false
	}

	cell, ok := row[module]

	return cell, ok
}

// SetCell stores one cell, allocating the row if needed.
func (m Matrix) SetCell(role Role, module Module, cell ActionSet) {
	row, ok := m[role]
	if !ok {
		row = make(map[Module]ActionSet)
		m[role] = row
	}

	row[module] = cell
}

// Clone returns a deep copy of the matrix.
func (m Matrix) Clone() Matrix {
	clone := make(Matrix, len(m))
	for role, row := range m {
		rowClone := make(map[Module]ActionSet, len(row))
		for module, cell := range row {
			rowClone[module] = cell
		}

		clone[role] = rowClone
	}

	return clone
}

// MergeOverrides applies overrides on top of the matrix, cell-by-cell. An
// override cell replaces the default cell entirely, so revocations carry.
func (m Matrix) MergeOverrides(overrides Matrix) {
	for role, row := range overrides {
		for module, cell := range row {
			m.SetCell(role, module, cell)
		}
	}
}

// DefaultMatrix builds the curated default grid: every cell starts as
// no-access, the privileged roles get full access across all modules, then
// the per-role product policy is applied. The policy table is reproduced
// from domain policy, not derived.
func DefaultMatrix() Matrix {
	matrix := make(Matrix, len(allRoles))

	for _, role := range allRoles {
		row := make(map[Module]ActionSet, len(moduleConfigs))
		for _, cfg := range moduleConfigs {
			row[cfg.Key] = NoAccess()
		}

		matrix[role] = row
	}

	for _, role := range privilegedRoles {
		for _, cfg := range moduleConfigs {
			matrix.SetCell(role, cfg.Key, FullAccess())
		}
	}

	applyRolePolicy(matrix)

	return matrix
}

// applyRolePolicy applies the curated per-role overrides.
func applyRolePolicy(matrix Matrix) {
	// Sales: full commercial pipeline, read-only operations, partial finance.
	for _, module := range []Module{
		ModuleCommercial,
		ModuleProposals,
		ModuleRetention,
		ModuleCalendar,
		ModuleMarketing,
		ModuleInbox,
		ModuleProspecting,
		ModuleCompetitiveIntel,
	} {
		matrix.SetCell(RoleSales, module, FullAccess())
	}

	matrix.SetCell(RoleSales, ModuleDashboard, ViewOnly())
	matrix.SetCell(RoleSales, ModuleAutomation, ViewOnly())
	matrix.SetCell(RoleSales, ModuleProjects, ViewOnly())
	matrix.SetCell(RoleSales, ModuleFinance, ActionSet{View: true, Create: true})
	matrix.SetCell(RoleSales, ModuleReports, ViewOnly())
	matrix.SetCell(RoleSales, ModuleDocuments, ActionSet{View: true, Create: true})

	// Support: full access to tickets, limited reach into adjacent modules.
	matrix.SetCell(RoleSupport, ModuleTickets, FullAccess())
	matrix.SetCell(RoleSupport, ModuleDashboard, ViewOnly())
	matrix.SetCell(RoleSupport, ModuleInbox, ActionSet{View: true, Create: true, Edit: true})
	matrix.SetCell(RoleSupport, ModuleCommercial, ViewOnly())
	matrix.SetCell(RoleSupport, ModuleCalendar, ActionSet{View: true, Create: true})
	matrix.SetCell(RoleSupport, ModuleProjects, ViewOnly())
	matrix.SetCell(RoleSupport, ModuleDocuments, ViewOnly())

	// Finance: full billing, read-only commercial context.
	matrix.SetCell(RoleFinance, ModuleFinance, FullAccess())
	matrix.SetCell(RoleFinance, ModuleDashboard, ViewOnly())
	matrix.SetCell(RoleFinance, ModuleCommercial, ViewOnly())
	matrix.SetCell(RoleFinance, ModuleProposals, ViewOnly())
	matrix.SetCell(RoleFinance, ModuleReports, ViewOnly())
	matrix.SetCell(RoleFinance, ModuleDocuments, ActionSet{View: true, Create: true, Edit: true})

	// Executive: read everything that matters, change nothing.
	for _, module := range []Module{
		ModuleDashboard,
		ModuleCommercial,
		ModuleProposals,
		ModuleRetention,
		ModuleMarketing,
		ModuleProspecting,
		ModuleCompetitiveIntel,
		ModuleProjects,
		ModuleFinance,
		ModuleTickets,
		ModuleReports,
	} {
		matrix.SetCell(RoleExecutive, module, ViewOnly())
	}

	// Client: the portal grant is hard-coded in HasPermission, but the
	// matrix keeps an explicit row for admin screens.
	matrix.SetCell(RoleClient, ModulePortal, ViewOnly())
	matrix.SetCell(RoleClient, ModuleDocuments, ViewOnly())
}

// HasPermission answers a permission query against the matrix.
//
// Contract:
//   - The client role always has view on the portal module, regardless of
//     matrix contents.
//   - A (role, module) pair with no matrix entry is denied unless role is
//     the top-privilege role. This conservative default intentionally also
//     denies other high-privilege-sounding roles (e.g. executive) on
//     unmapped modules; pending product clarification.
//   - Otherwise, the stored cell decides.
func (m Matrix) HasPermission(role Role, module Module, action Action) bool {
	if role == RoleClient && module == ModulePortal {
		return true
	}

	cell, ok := m.Cell(role, module)
	if !ok {
		return role == RoleOwner
	}

	return cell.Allows(action)
}
