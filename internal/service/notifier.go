package service

// 变更事件
const (
	EventLogsChanged      = "logs.changed"
	EventApprovalsChanged = "approvals.changed"
	EventRosterChanged    = "roster.changed"
	EventSettingsChanged  = "settings.changed"
	EventSyncRefreshed    = "sync.refreshed"
	EventStateRestored    = "state.restored"
)

// Notifier 变更通知接口，由 WebSocket Hub 实现
type Notifier interface {
	Notify(event string, data interface{})
}

type noopNotifier struct{}

func (noopNotifier) Notify(string, interface{}) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
