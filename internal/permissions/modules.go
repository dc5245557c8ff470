package permissions

import "slices"

// Module is a business module key. Like roles, the module set is fixed at
// build time.
type Module string

const (
	ModuleDashboard        Module = "dashboard"
	ModuleCommercial       Module = "commercial"
	ModuleProposals        Module = "proposals"
	ModuleRetention        Module = "retention"
	ModuleCalendar         Module = "calendar"
	ModuleMarketing        Module = "marketing"
	ModuleInbox            Module = "inbox"
	ModuleProspecting      Module = "prospecting"
	ModuleCompetitiveIntel Module = "competitive-intelligence"
	ModuleAutomation       Module = "automation"
	ModuleProjects         Module = "projects"
	ModuleFinance          Module = "finance"
	ModuleTickets          Module = "tickets"
	ModuleReports          Module = "reports"
	ModuleDocuments        Module = "documents"
	ModuleTeam             Module = "team"
	ModuleSettings         Module = "settings"
	// ModulePortal is the client-facing surface. Client-role users are
	// always granted view on it, bypassing the matrix.
	ModulePortal Module = "portal"
)

// ModuleInfo describes a module for admin screens.
type ModuleInfo struct {
	Key         Module
	Description string
}

var moduleConfigs = []ModuleInfo{
	{Key: ModuleDashboard, Description: "Overview dashboard"},
	{Key: ModuleCommercial, Description: "Commercial pipeline (leads and deals)"},
	{Key: ModuleProposals, Description: "Proposals and quotes"},
	{Key: ModuleRetention, Description: "Customer retention and renewals"},
	{Key: ModuleCalendar, Description: "Shared calendar and scheduling"},
	{Key: ModuleMarketing, Description: "Campaigns and marketing assets"},
	{Key: ModuleInbox, Description: "Unified message inbox"},
	{Key: ModuleProspecting, Description: "Prospecting lists"},
	{Key: ModuleCompetitiveIntel, Description: "Competitive intelligence"},
	{Key: ModuleAutomation, Description: "Workflow automation"},
	{Key: ModuleProjects, Description: "Project tracking"},
	{Key: ModuleFinance, Description: "Invoices and billing"},
	{Key: ModuleTickets, Description: "Support tickets"},
	{Key: ModuleReports, Description: "Reports and charts"},
	{Key: ModuleDocuments, Description: "Documents and contracts"},
	{Key: ModuleTeam, Description: "Team management"},
	{Key: ModuleSettings, Description: "Organization settings"},
	{Key: ModulePortal, Description: "Client portal"},
}

// AllModules returns the fixed module set.
func AllModules() []Module {
	modules := make([]Module, len(moduleConfigs))
	for i, cfg := range moduleConfigs {
		modules[i] = cfg.Key
	}

	return modules
}

// AllModuleInfos returns the module registry with descriptions.
func AllModuleInfos() []ModuleInfo {
	return slices.Clone(moduleConfigs)
}

// IsValidModule checks if a module belongs to the fixed set.
func IsValidModule(module Module) bool {
	for _, cfg := range moduleConfigs {
		if cfg.Key == module {
			return true
		}
	}

	return false
}
