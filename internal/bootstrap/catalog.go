package bootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// MenuSpec is one compiled-in catalog entry. ParentID 0 means root.
type MenuSpec struct {
	ID          int64
	Name        string
	DisplayName string
	Route       string
	Icon        string
	ParentID    int64
	OrderIndex  int
}

// Grant is a baseline matrix row applied by the seeder.
type Grant struct {
	Role   string
	MenuID int64
	Mask   shared.Mask
}

var canonicalMenus = []MenuSpec{
	{ID: shared.MenuDashboard, Name: "dashboard", DisplayName: "Dashboard", Route: "/dashboard", Icon: "home", OrderIndex: 1},
	{ID: shared.MenuAdministration, Name: "administration", DisplayName: "Administration", Icon: "settings", OrderIndex: 90},
	{ID: shared.MenuMenuManagement, Name: "menu_management", DisplayName: "Menu Management", Route: "/admin/menus", ParentID: shared.MenuAdministration, OrderIndex: 1},
	{ID: shared.MenuRoles, Name: "roles", DisplayName: "Roles", Route: "/admin/roles", ParentID: shared.MenuAdministration, OrderIndex: 2},
	{ID: shared.MenuRoleRights, Name: "role_rights", DisplayName: "Role Rights", Route: "/admin/role-rights", ParentID: shared.MenuAdministration, OrderIndex: 3},
	{ID: shared.MenuUsers, Name: "users", DisplayName: "Users", Route: "/admin/users", ParentID: shared.MenuAdministration, OrderIndex: 4},

	{ID: shared.MenuHRMS, Name: "hrms", DisplayName: "HRMS", Icon: "people", OrderIndex: 10},
	{ID: shared.MenuAttendance, Name: "attendance", DisplayName: "Attendance", Route: "/hrms/attendance", ParentID: shared.MenuHRMS, OrderIndex: 1},
	{ID: shared.MenuShifts, Name: "shifts", DisplayName: "Shifts", Route: "/hrms/shifts", ParentID: shared.MenuHRMS, OrderIndex: 2},
	{ID: shared.MenuPayroll, Name: "payroll", DisplayName: "Payroll", Route: "/hrms/payroll", ParentID: shared.MenuHRMS, OrderIndex: 3},
	{ID: shared.MenuLeave, Name: "leave", DisplayName: "Leave", Route: "/hrms/leave", ParentID: shared.MenuHRMS, OrderIndex: 4},

	{ID: shared.MenuRecruitment, Name: "recruitment", DisplayName: "Recruitment", Icon: "briefcase", OrderIndex: 20},
	{ID: shared.MenuJobPostings, Name: "job_postings", DisplayName: "Job Postings", Route: "/recruitment/jobs", ParentID: shared.MenuRecruitment, OrderIndex: 1},
	{ID: shared.MenuCandidates, Name: "candidates", DisplayName: "Candidates", Route: "/recruitment/candidates", ParentID: shared.MenuRecruitment, OrderIndex: 2},

	{ID: shared.MenuLMS, Name: "lms", DisplayName: "Learning", Icon: "book", OrderIndex: 30},
	{ID: shared.MenuCourses, Name: "courses", DisplayName: "Courses", Route: "/lms/courses", ParentID: shared.MenuLMS, OrderIndex: 1},
	{ID: shared.MenuEnrollments, Name: "enrollments", DisplayName: "Enrollments", Route: "/lms/enrollments", ParentID: shared.MenuLMS, OrderIndex: 2},

	{ID: shared.MenuReports, Name: "reports", DisplayName: "Reports", Route: "/reports", Icon: "chart", OrderIndex: 40},
}

var canonicalRoles = []string{
	shared.RoleNameSuperAdmin,
	shared.RoleNameAdmin,
	shared.RoleNameManager,
	shared.RoleNameOrgAdmin,
	shared.RoleNameUser,
}

// CanonicalMenus returns the catalog in parent-before-child order.
func CanonicalMenus() []MenuSpec {
	out := make([]MenuSpec, len(canonicalMenus))
	copy(out, canonicalMenus)
	return out
}

// CanonicalRoles returns the role names every installation carries.
func CanonicalRoles() []string {
	out := make([]string, len(canonicalRoles))
	copy(out, canonicalRoles)
	return out
}

// Baselines returns the matrix rows the seeder guarantees.
func Baselines() []Grant {
	var grants []Grant
	for _, m := range canonicalMenus {
		grants = append(grants, Grant{Role: shared.RoleNameAdmin, MenuID: m.ID, Mask: shared.FullMask()})
	}
	grants = append(grants,
		Grant{Role: shared.RoleNameUser, MenuID: shared.MenuDashboard, Mask: shared.ViewOnly()},
		Grant{Role: shared.RoleNameManager, MenuID: shared.MenuDashboard, Mask: shared.ViewOnly()},
		Grant{Role: shared.RoleNameManager, MenuID: shared.MenuReports, Mask: shared.ViewOnly()},
		Grant{Role: shared.RoleNameOrgAdmin, MenuID: shared.MenuDashboard, Mask: shared.ViewOnly()},
		Grant{Role: shared.RoleNameOrgAdmin, MenuID: shared.MenuReports, Mask: shared.ViewOnly()},
	)
	operate := shared.Mask{View: true, Create: true, Edit: true}
	for _, root := range []int64{shared.MenuHRMS, shared.MenuRecruitment, shared.MenuLMS} {
		for _, id := range subtree(root) {
			grants = append(grants, Grant{Role: shared.RoleNameOrgAdmin, MenuID: id, Mask: operate})
		}
	}
	return grants
}

// subtree returns root and its descendants in catalog order.
func subtree(root int64) []int64 {
	in := map[int64]bool{root: true}
	out := []int64{root}
	for _, m := range canonicalMenus {
		if m.ParentID != 0 && in[m.ParentID] && !in[m.ID] {
			in[m.ID] = true
			out = append(out, m.ID)
		}
	}
	return out
}

// CatalogHash fingerprints the compiled-in catalog. A stored hash that
// differs means the database was seeded from another catalog revision.
func CatalogHash() string {
	h := sha256.New()
	for _, m := range canonicalMenus {
		fmt.Fprintf(h, "%d|%s|%s|%s|%s|%d|%d\n", m.ID, m.Name, m.DisplayName, m.Route, m.Icon, m.ParentID, m.OrderIndex)
	}
	fmt.Fprintf(h, "roles|%s\n", strings.Join(canonicalRoles, ","))
	return hex.EncodeToString(h.Sum(nil))
}
