// Package rest provides a permission oracle which calls a separate authorization service over
// REST API (technically JSON RPC, not REST).
package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/db/common"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/perms"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

const (
	defaultTimeout = 3 * time.Second
	// Responses larger than this are treated as malformed.
	maxResponseSize = 1 << 16
)

type oracle struct {
	// Logical name of this oracle
	name string
	// URL of the server
	serverUrl string
	// Use separate endpoints, i.e. add request name to serverUrl path when making requests.
	useSeparateEndpoints bool

	client *http.Client
}

// Capability question sent to the server.
type capabilityReq struct {
	User  types.Uid        `json:"user"`
	Scope types.Uid        `json:"scope"`
	Cap   types.Capability `json:"cap"`
}

// Request to the server.
type request struct {
	Endpoint string `json:"endpoint"`
	Name     string `json:"name"`
	Req      any    `json:"req,omitempty"`
}

// Response from the server.
type response struct {
	// Error message in case of an error.
	Err string `json:"err,omitempty"`
	// The answer to a capability question.
	Granted bool `json:"granted,omitempty"`
}

// Init initializes the oracle.
func (o *oracle) Init(jsonconf json.RawMessage, name string) error {
	if o.name != "" {
		return errors.New("perms_rest: already initialized as " + o.name + "; " + name)
	}

	type configType struct {
		// ServerUrl is the URL of the server to call.
		ServerUrl string `json:"server_url"`
		// Use separate endpoints, i.e. add request name to serverUrl path when making requests.
		UseSeparateEndpoints bool `json:"use_separate_endpoints"`
		// Request timeout in seconds.
		Timeout int `json:"timeout"`
	}

	var config configType
	if err := json.Unmarshal(jsonconf, &config); err != nil {
		return errors.New("perms_rest: failed to parse config: " + err.Error() + "(" + string(jsonconf) + ")")
	}

	serverUrl, err := url.Parse(config.ServerUrl)
	if err != nil || !serverUrl.IsAbs() {
		return errors.New("perms_rest: invalid server_url")
	}
	if !strings.HasSuffix(serverUrl.Path, "/") {
		serverUrl.Path += "/"
	}

	timeout := defaultTimeout
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}

	o.name = name
	o.serverUrl = serverUrl.String()
	o.useSeparateEndpoints = config.UseSeparateEndpoints
	o.client = &http.Client{Timeout: timeout}

	return nil
}

// Execute HTTP POST to the server at the specified endpoint and with the provided payload.
func (o *oracle) callEndpoint(endpoint string, payload any) (*response, error) {
	content, err := json.Marshal(&request{Endpoint: endpoint, Name: o.name, Req: payload})
	if err != nil {
		return nil, types.ErrMalformed
	}

	urlToCall := o.serverUrl
	if o.useSeparateEndpoints {
		epUrl, _ := url.Parse(o.serverUrl)
		epUrl.Path += endpoint
		urlToCall = epUrl.String()
	}

	post, err := o.client.Post(urlToCall, "application/json", bytes.NewBuffer(content))
	if err != nil {
		// Could not connect or timed out: the question may be asked again.
		return nil, types.ErrUnavailable
	}
	defer post.Body.Close()

	if post.StatusCode >= http.StatusInternalServerError {
		return nil, types.ErrUnavailable
	}

	body, err := io.ReadAll(io.LimitReader(post.Body, maxResponseSize))
	if err != nil {
		return nil, common.Unavailable(err)
	}
	if post.StatusCode != http.StatusOK {
		return nil, types.ErrInternal
	}

	var resp response
	if err = json.Unmarshal(body, &resp); err != nil {
		return nil, types.ErrInternal
	}

	if resp.Err != "" {
		return nil, types.StoreError(resp.Err)
	}

	return &resp, nil
}

// HasCapability asks the server if the actor holds the capability in the scope.
func (o *oracle) HasCapability(actor, scope types.Uid, capability types.Capability) (bool, error) {
	if actor.IsZero() || scope.IsZero() {
		return false, types.ErrMalformed
	}

	resp, err := o.callEndpoint("capability", &capabilityReq{User: actor, Scope: scope, Cap: capability})
	if err != nil {
		return false, err
	}
	return resp.Granted, nil
}

// New returns an uninitialized oracle.
func New() perms.Oracle {
	return &oracle{}
}

func init() {
	perms.Register("rest", &oracle{})
}
