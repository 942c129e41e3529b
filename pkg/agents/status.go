package agents

// HostStatus is the closed status enumeration of a HostAgent turn.
type HostStatus string

const (
	HostStatusFinish   HostStatus = "FINISH"
	HostStatusContinue HostStatus = "CONTINUE"
	HostStatusPending  HostStatus = "PENDING"
	HostStatusAssign   HostStatus = "ASSIGN"
)

func (s HostStatus) IsValid() bool {
	switch s {
	case HostStatusFinish, HostStatusContinue, HostStatusPending, HostStatusAssign:
		return true
	}
	return false
}

// AppStatus is the closed status enumeration of an AppAgent turn.
type AppStatus string

const (
	AppStatusContinue AppStatus = "CONTINUE"
	AppStatusFinish   AppStatus = "FINISH"
	AppStatusFail     AppStatus = "FAIL"
	AppStatusConfirm  AppStatus = "CONFIRM"
)

func (s AppStatus) IsValid() bool {
	switch s {
	case AppStatusContinue, AppStatusFinish, AppStatusFail, AppStatusConfirm:
		return true
	}
	return false
}
