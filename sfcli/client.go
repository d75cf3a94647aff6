// Package sfcli talks to a Salesforce org through the sf command line tool
// and the REST API.
package sfcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rlch/soql"
	"github.com/rlch/soql/results"
)

// LegacyCLI is consulted for a default username when sf has no target org.
const LegacyCLI = "sfdx"

// Options configures a Client.
type Options struct {
	CLI        string  // executable, "sf" when empty
	TargetOrg  string  // passed as --target-org when set
	APIVersion float64 // REST API version, soql.DefaultAPIVersion when zero
	Runner     Runner
	HTTPClient *http.Client
}

// Client is a backend for one org.
type Client struct {
	cli        string
	targetOrg  string
	apiVersion float64
	runner     Runner
	http       *http.Client
	logger     *zap.Logger

	mu  sync.Mutex
	org *soql.OrgInfo
}

// New creates a client.
func New(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		cli:        opts.CLI,
		targetOrg:  opts.TargetOrg,
		apiVersion: opts.APIVersion,
		runner:     opts.Runner,
		http:       opts.HTTPClient,
		logger:     logger,
	}

	if c.cli == "" {
		c.cli = "sf"
	}

	if c.apiVersion == 0 {
		c.apiVersion = soql.DefaultAPIVersion
	}

	if c.runner == nil {
		c.runner = ExecRunner{}
	}

	if c.http == nil {
		c.http = http.DefaultClient
	}

	return c
}

// CommandError is returned when a CLI command exits unsuccessfully.
type CommandError struct {
	Args    []string
	Stderr  string
	Message string // "message" field of the JSON output, if any
	Err     error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr + " " + e.Message)
	if msg == "" {
		msg = e.Err.Error()
	}

	return strings.Join(e.Args, " ") + ": " + msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// envelope is the JSON shape every sf --json command prints.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// run executes the CLI with --json and returns the result payload.
func (c *Client) run(ctx context.Context, name string, args ...string) (json.RawMessage, error) {
	args = append(slices.Clone(args), "--json")

	c.logger.Debug("Running CLI", zap.String("cli", name), zap.Strings("args", args))

	stdout, stderr, err := c.runner.Run(ctx, name, args...)

	var env envelope
	jsonErr := json.Unmarshal(stdout, &env)

	if err != nil {
		return nil, &CommandError{
			Args:    append([]string{name}, args...),
			Stderr:  strings.TrimSpace(string(stderr)),
			Message: env.Message,
			Err:     err,
		}
	}

	if jsonErr != nil {
		return nil, fmt.Errorf("%s %s: could not parse CLI output: %w", name, strings.Join(args, " "), jsonErr)
	}

	return env.Result, nil
}

func (c *Client) orgArgs(args ...string) []string {
	if c.targetOrg != "" {
		args = append(args, "--target-org", c.targetOrg)
	}

	return args
}

func toolingArgs(args []string, tooling bool) []string {
	if tooling {
		args = append(args, "--use-tooling-api")
	}

	return args
}

// Validate checks that the CLI runs and that an org is selected.
func (c *Client) Validate(ctx context.Context) error {
	if _, _, err := c.runner.Run(ctx, c.cli, "--version"); err != nil {
		return fmt.Errorf("%w: %s: %v", soql.ErrCLINotInstalled, c.cli, err)
	}

	if c.targetOrg != "" {
		return nil
	}

	if org, err := c.configValue(ctx, c.cli, "target-org", "config", "get", "target-org"); err == nil && org != "" {
		return nil
	}

	if org, err := c.configValue(ctx, LegacyCLI, "defaultusername", "config:get", "defaultusername"); err == nil && org != "" {
		return nil
	}

	return soql.ErrNoDefaultOrg
}

func (c *Client) configValue(ctx context.Context, cli, key string, args ...string) (string, error) {
	raw, err := c.run(ctx, cli, args...)
	if err != nil {
		return "", err
	}

	var entries []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return "", err
	}

	for _, e := range entries {
		if e.Name == key {
			return e.Value, nil
		}
	}

	return "", nil
}

// OrgInfo returns the org's identity and access token. The first successful
// result is memoized.
func (c *Client) OrgInfo(ctx context.Context) (*soql.OrgInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.org != nil {
		return c.org, nil
	}

	raw, err := c.run(ctx, c.cli, c.orgArgs("org", "display")...)
	if err != nil {
		return nil, err
	}

	var display struct {
		ID          string `json:"id"`
		Username    string `json:"username"`
		Alias       string `json:"alias"`
		InstanceURL string `json:"instanceUrl"`
		APIVersion  string `json:"apiVersion"`
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(raw, &display); err != nil {
		return nil, fmt.Errorf("decoding org display: %w", err)
	}

	c.org = &soql.OrgInfo{
		ID:          display.ID,
		Username:    display.Username,
		Alias:       display.Alias,
		InstanceURL: strings.TrimRight(display.InstanceURL, "/"),
		APIVersion:  display.APIVersion,
		AccessToken: display.AccessToken,
	}

	return c.org, nil
}

// Forget drops the memoized org info.
func (c *Client) Forget() {
	c.mu.Lock()
	c.org = nil
	c.mu.Unlock()
}

// ListObjects fetches the object catalog from the REST API.
func (c *Client) ListObjects(ctx context.Context, tooling bool) ([]soql.SchemaDescriptor, error) {
	org, err := c.OrgInfo(ctx)
	if err != nil {
		return nil, err
	}

	path := "/sobjects/"
	if tooling {
		path = "/tooling/sobjects/"
	}

	endpoint := org.InstanceURL + "/services/data/v" + strconv.FormatFloat(c.apiVersion, 'f', 1, 64) + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+org.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)

		return nil, fmt.Errorf("API call failed: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		SObjects []soql.SchemaDescriptor `json:"sobjects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding object list: %w", err)
	}

	return payload.SObjects, nil
}

// Describe runs sobject describe for one object.
func (c *Client) Describe(ctx context.Context, name string, tooling bool) (*soql.SchemaDescriptor, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", soql.ErrUnknownObject)
	}

	args := toolingArgs(c.orgArgs("sobject", "describe", "--sobject", name), tooling)

	raw, err := c.run(ctx, c.cli, args...)
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: %s", soql.ErrUnknownObject, name)
	}

	var desc soql.SchemaDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("decoding describe for %s: %w", name, err)
	}

	if desc.Fields == nil {
		desc.Fields = []soql.FieldDescriptor{}
	}

	return &desc, nil
}

// ErrQueryFailed wraps errors reported inside a query result.
var ErrQueryFailed = errors.New("sfcli: query failed")

// Query runs a query. Newlines and repeated whitespace are collapsed first.
func (c *Client) Query(ctx context.Context, query string, tooling bool) (*results.Result, error) {
	q := soql.NormalizeQuery(query)
	if q == "" {
		return nil, soql.ErrEmptyQuery
	}

	args := toolingArgs(c.orgArgs("data", "query", "--query", q), tooling)

	raw, err := c.run(ctx, c.cli, args...)
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: empty result", ErrQueryFailed)
	}

	return results.Decode(raw)
}
