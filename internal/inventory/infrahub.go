package inventory

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sshcollectorpro/sysvers/internal/config"
	"github.com/sshcollectorpro/sysvers/pkg/logger"
)

const defaultSchema = "JeylanDevice"

// schema 名直接拼进查询语句，只接受 GraphQL 标识符
var schemaPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const deviceQuery = `query {
  %s {
    edges {
      node {
        id
        name { value }
        osversion { node { name { value } } }
      }
    }
  }
}`

// Infrahub 通过 GraphQL 接口读取设备清单
type Infrahub struct {
	endpoint string
	token    string
	schema   string
	client   *http.Client
}

// NewInfrahub 创建 Infrahub 清单来源；token 为空返回 ErrNoToken
func NewInfrahub(cfg config.InfrahubConfig) (*Infrahub, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrNoToken
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("infrahub url not set")
	}
	schema := cfg.Schema
	if schema == "" {
		schema = defaultSchema
	}
	if !schemaPattern.MatchString(schema) {
		return nil, fmt.Errorf("invalid infrahub device schema %q", schema)
	}

	endpoint := strings.TrimRight(cfg.URL, "/")
	if !strings.HasSuffix(endpoint, "/graphql") {
		endpoint += "/graphql"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.TLSInsecure {
		logger.Warnf("TLS verification is disabled for Infrahub (%s)", endpoint)
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Infrahub{
		endpoint: endpoint,
		token:    cfg.Token,
		schema:   schema,
		client:   &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type valueField struct {
	Value string `json:"value"`
}

type infrahubNode struct {
	ID        string     `json:"id"`
	Name      valueField `json:"name"`
	OSVersion *struct {
		Node *struct {
			Name valueField `json:"name"`
		} `json:"node"`
	} `json:"osversion"`
}

type graphQLResponse struct {
	Data map[string]struct {
		Edges []struct {
			Node infrahubNode `json:"node"`
		} `json:"edges"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// List 拉取全部设备
func (s *Infrahub) List(ctx context.Context) ([]Descriptor, error) {
	body, err := json.Marshal(graphQLRequest{Query: fmt.Sprintf(deviceQuery, s.schema)})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-INFRAHUB-KEY", s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("infrahub request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("infrahub returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var gr graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode infrahub response: %w", err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("infrahub graphql error: %s", strings.Join(msgs, "; "))
	}

	conn, ok := gr.Data[s.schema]
	if !ok {
		return nil, fmt.Errorf("infrahub response has no %s data", s.schema)
	}

	devices := make([]Descriptor, 0, len(conn.Edges))
	for _, edge := range conn.Edges {
		n := edge.Node
		name := strings.TrimSpace(n.Name.Value)
		if name == "" {
			continue
		}
		d := Descriptor{ID: n.ID, Name: name}
		if n.OSVersion != nil && n.OSVersion.Node != nil {
			d.RecordedVersion = n.OSVersion.Node.Name.Value
		}
		devices = append(devices, d)
	}
	logger.Infof("Recovered %d devices from Infrahub", len(devices))
	return devices, nil
}
