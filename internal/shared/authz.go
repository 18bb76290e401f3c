package shared

// Capabilities checked by route groups.
const (
	PermJobsManage        = "jobs.manage"
	PermPaymentsManage    = "payments.manage"
	PermCustomersManage   = "customers.manage"
	PermSettingsManage    = "settings.manage"
	PermNotificationsTest = "notifications.test"
	PermNotificationsSend = "notifications.send"
)

// AllScopes lists every capability.
func AllScopes() []string {
	return []string{
		PermJobsManage,
		PermPaymentsManage,
		PermCustomersManage,
		PermSettingsManage,
		PermNotificationsTest,
		PermNotificationsSend,
	}
}

// StaffScopes lists the capabilities of regular diary staff.
func StaffScopes() []string {
	return []string{
		PermJobsManage,
		PermPaymentsManage,
		PermCustomersManage,
		PermNotificationsSend,
	}
}
