package config

import "fmt"

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type Credential struct {
	Index    int
	Username string
	Password string
}

// Masked is the label used for the account in logs and reports.
func (c Credential) Masked() string {
	return fmt.Sprintf("user #%d", c.Index)
}

// LoadCredentials reads USERNAME_<i>/PASSWORD_<i> pairs starting at 1 and
// stops at the first index where either half is missing or empty.
func LoadCredentials(lookup LookupFunc) []Credential {
	var creds []Credential
	for i := 1; ; i++ {
		username, _ := lookup(fmt.Sprintf("USERNAME_%d", i))
		password, _ := lookup(fmt.Sprintf("PASSWORD_%d", i))
		if username == "" || password == "" {
			break
		}
		creds = append(creds, Credential{Index: i, Username: username, Password: password})
	}
	return creds
}
