package jobs

type JobType string

const (
	// append the registration to the solo/group spreadsheet
	JobExportRegistration JobType = "registration.export"
	// send the confirmation mail with the unique id
	JobSendConfirmation JobType = "registration.confirmation"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobExportRegistration, JobSendConfirmation:
		return true
	default:
		return false
	}
}
