// Package classify holds the deterministic classification data used when
// the identification collaborator is unavailable: an ordered fallback rule
// table and the set of ports commonly occupied by non-HTTP services.
//
// Both are data, not logic. Built-in defaults cover the usual local dev
// landscape and can be replaced from a YAML file (see Loader).
package classify

import (
	"fmt"
	"strings"

	"github.com/TWeb79/appscout/internal/domain"
)

// Rule is one (predicate, result) pair of the fallback table.
// A rule matches when the probed port is in Ports, or when TitleContains
// is non-empty and appears in the page title (case-insensitive).
type Rule struct {
	Ports         []int  `yaml:"ports,omitempty"`
	TitleContains string `yaml:"title_contains,omitempty"`
	Name          string `yaml:"name"`
	Category      string `yaml:"category"`
}

// Matches reports whether the rule applies to the given port/title pair.
func (r Rule) Matches(port int, title string) bool {
	for _, p := range r.Ports {
		if p == port {
			return true
		}
	}
	if r.TitleContains != "" && title != "" {
		return strings.Contains(strings.ToLower(title), strings.ToLower(r.TitleContains))
	}
	return false
}

// Table bundles the ordered rule list and the non-HTTP port set.
type Table struct {
	rules        []Rule
	nonHTTPPorts map[int]struct{}
}

// NewTable builds a Table from explicit data. Rule order is preserved
// exactly: rules can overlap by port and the first declared match wins.
func NewTable(rules []Rule, nonHTTPPorts []int) *Table {
	set := make(map[int]struct{}, len(nonHTTPPorts))
	for _, p := range nonHTTPPorts {
		set[p] = struct{}{}
	}
	return &Table{rules: rules, nonHTTPPorts: set}
}

// Default returns a Table with the built-in rules and port list.
func Default() *Table {
	return NewTable(defaultRules, defaultNonHTTPPorts)
}

// Identify resolves a deterministic name/category for a discovered
// service: first declared rule that matches wins; otherwise the page
// title is used as the name; otherwise a generic "Port N" default.
func (t *Table) Identify(port int, title string) domain.Identification {
	for _, r := range t.rules {
		if r.Matches(port, title) {
			return domain.Identification{Name: r.Name, Category: r.Category}
		}
	}
	if title != "" {
		return domain.Identification{Name: title, Category: "Web Application"}
	}
	return domain.Identification{
		Name:     fmt.Sprintf("Port %d", port),
		Category: "Unknown",
	}
}

// IsNonHTTPPort reports whether the port is on the list of services that
// commonly speak something other than HTTP (brokers, databases, mail,
// FTP, SSH). Ambiguous transport errors against these ports classify as
// unknown rather than offline.
func (t *Table) IsNonHTTPPort(port int) bool {
	_, ok := t.nonHTTPPorts[port]
	return ok
}

// Rules returns the rule list in declared order.
func (t *Table) Rules() []Rule { return t.rules }

// defaultNonHTTPPorts is a hand-maintained guess list; its coverage is
// inherently approximate, which is why it is replaceable via YAML.
var defaultNonHTTPPorts = []int{
	21, 22, 23, 25, 53, 110, 143, 389, 465, 587, 636, 993, 995, // mail/ftp/ssh/ldap/dns
	1433, 3306, 5432, 6379, 9042, 11211, 27017, // databases and caches
	1883, 4222, 5672, 9092, 61613, 61616, // message brokers
}

// defaultRules is the built-in fallback table. Port rules come before
// title rules so a port match always wins over a title match.
var defaultRules = []Rule{
	{Ports: []int{3000, 3001}, Name: "Node.js App", Category: "Development"},
	{Ports: []int{4200}, Name: "Angular Dev Server", Category: "Development"},
	{Ports: []int{4321}, Name: "Astro Dev Server", Category: "Development"},
	{Ports: []int{5173, 5174}, Name: "Vite Dev Server", Category: "Development"},
	{Ports: []int{5000}, Name: "Flask App", Category: "Development"},
	{Ports: []int{8000}, Name: "Django App", Category: "Development"},
	{Ports: []int{6006}, Name: "Storybook", Category: "Development"},
	{Ports: []int{8888}, Name: "Jupyter Notebook", Category: "Data Science"},
	{Ports: []int{9090}, Name: "Prometheus", Category: "Monitoring"},
	{Ports: []int{15672}, Name: "RabbitMQ Management", Category: "Infrastructure"},
	{Ports: []int{5601}, Name: "Kibana", Category: "Monitoring"},
	{Ports: []int{8161}, Name: "ActiveMQ Console", Category: "Infrastructure"},
	{Ports: []int{8025}, Name: "Mailpit", Category: "Development"},
	{TitleContains: "grafana", Name: "Grafana", Category: "Monitoring"},
	{TitleContains: "jenkins", Name: "Jenkins", Category: "CI/CD"},
	{TitleContains: "portainer", Name: "Portainer", Category: "Infrastructure"},
	{TitleContains: "pgadmin", Name: "pgAdmin", Category: "Database UI"},
	{TitleContains: "phpmyadmin", Name: "phpMyAdmin", Category: "Database UI"},
	{TitleContains: "minio", Name: "MinIO Console", Category: "Storage"},
	{TitleContains: "swagger", Name: "Swagger UI", Category: "API Docs"},
	{TitleContains: "jupyter", Name: "Jupyter", Category: "Data Science"},
}
