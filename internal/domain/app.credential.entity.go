package domain

const AppStatusActive = "active"

type AppCredential struct {
	AppID      string
	SecretHash string
	Status     string
}

func (c AppCredential) Active() bool {
	return c.Status == AppStatusActive
}
