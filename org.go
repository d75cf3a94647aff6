package soql

// OrgInfo identifies the org a backend talks to.
type OrgInfo struct {
	ID          string `json:"id,omitempty"`
	Username    string `json:"username,omitempty"`
	Alias       string `json:"alias,omitempty"`
	InstanceURL string `json:"instanceUrl,omitempty"`
	APIVersion  string `json:"apiVersion,omitempty"`
	// AccessToken is never sent to a UI.
	AccessToken string `json:"-"`
}
