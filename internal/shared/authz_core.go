package shared

// Canonical menu ids. They are stable across deploys and shared by the seeder
// and the route table.
const (
	MenuDashboard      int64 = 1
	MenuAdministration int64 = 2
	MenuMenuManagement int64 = 3
	MenuRoles          int64 = 4
	MenuRoleRights     int64 = 5
	MenuUsers          int64 = 6

	MenuHRMS       int64 = 10
	MenuAttendance int64 = 11
	MenuShifts     int64 = 12
	MenuPayroll    int64 = 13
	MenuLeave      int64 = 14

	MenuRecruitment int64 = 20
	MenuJobPostings int64 = 21
	MenuCandidates  int64 = 22

	MenuLMS         int64 = 30
	MenuCourses     int64 = 31
	MenuEnrollments int64 = 32

	MenuReports int64 = 40
)

// CoreMenus lists the administration menus guarding this subsystem's own endpoints.
func CoreMenus() []int64 {
	return []int64{
		MenuMenuManagement,
		MenuRoles,
		MenuRoleRights,
		MenuUsers,
	}
}
