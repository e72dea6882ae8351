package behavior

// Default returns the canonical wiring for the built-in agent catalog.
func Default() *Sets {
	s := NewSets()
	for agent, key := range map[string]string{
		"Planner":                    "plan",
		"Requirements Clarifier":     "requirements",
		"Stack Selector":             "stack",
		"Design Agent":               "design_spec",
		"Brand Agent":                "brand_spec",
		"Memory Agent":               "memory_summary",
		"Deployment Agent":           "deploy_result",
		"Vibe Analyzer Agent":        "vibe_spec",
		"Voice Context Agent":        "voice_requirements",
		"Aesthetic Reasoner Agent":   "aesthetic_report",
		"Collaborative Memory Agent": "team_preferences",
		"Real-time Feedback Agent":   "feedback_log",
		"Mood Detection Agent":       "mood",
		"Accessibility Vibe Agent":   "accessibility_vibe",
		"Performance Vibe Agent":     "performance_vibe",
		"Creativity Catalyst Agent":  "creative_ideas",
		"Design Iteration Agent":     "design_iterations",
	} {
		s.StateWriters[agent] = key
	}

	for agent, path := range map[string]string{
		"Frontend Generation":               "src/App.jsx",
		"Backend Generation":                "server.py",
		"Database Agent":                    "schema.sql",
		"API Integration":                   "api/client.js",
		"Test Generation":                   "tests/test_basic.py",
		"Documentation Agent":               "README.md",
		"Error Recovery":                    "docs/runbook.md",
		"PDF Export":                        "docs/summary.pdf",
		"Excel Export":                      "docs/tracking.csv",
		"Markdown Export":                   "docs/summary.md",
		"Layout Agent":                      "src/App.jsx",
		"SEO Agent":                         "public/robots.txt",
		"Content Agent":                     "content/copy.json",
		"Validation Agent":                  "validation/schema.json",
		"Auth Setup Agent":                  "auth/config.json",
		"Payment Setup Agent":               "payments/config.json",
		"Monitoring Agent":                  "monitoring/sentry.yaml",
		"DevOps Agent":                      ".github/workflows/ci.yml",
		"Webhook Agent":                     "webhooks/handler.js",
		"Email Agent":                       "email/config.json",
		"Legal Compliance Agent":            "docs/compliance.md",
		"Automation Agent":                  "cron/tasks.json",
		"GraphQL Agent":                     "schema.graphql",
		"WebSocket Agent":                   "ws/handler.js",
		"i18n Agent":                        "locales/en.json",
		"Caching Agent":                     "cache/redis.json",
		"Rate Limit Agent":                  "middleware/rate_limit.js",
		"Search Agent":                      "search/config.json",
		"Analytics Agent":                   "analytics/events.json",
		"API Documentation Agent":           "openapi.yaml",
		"Mobile Responsive Agent":           "styles/responsive.json",
		"Migration Agent":                   "migrations/001_init.sql",
		"Backup Agent":                      "scripts/backup.sh",
		"Notification Agent":                "notifications/config.json",
		"Staging Agent":                     "staging.env",
		"A/B Test Agent":                    "experiments/ab.json",
		"Feature Flag Agent":                "flags.json",
		"Error Boundary Agent":              "components/ErrorBoundary.jsx",
		"Logging Agent":                     "logging/config.json",
		"Metrics Agent":                     "metrics/prometheus.yaml",
		"Audit Trail Agent":                 "audit/middleware.js",
		"Session Agent":                     "session/config.json",
		"OAuth Provider Agent":              "auth/oauth.json",
		"2FA Agent":                         "auth/2fa.json",
		"Stripe Subscription Agent":         "payments/stripe.json",
		"Invoice Agent":                     "templates/invoice.html",
		"CDN Agent":                         "cdn/config.json",
		"SSR Agent":                         "next.config.js",
		"Schema Validation Agent":           "schemas/api.json",
		"Mock API Agent":                    "mocks/handlers.js",
		"E2E Agent":                         "e2e/spec.js",
		"Load Test Agent":                   "load/k6.js",
		"License Agent":                     "LICENSE",
		"Terms Agent":                       "docs/terms.md",
		"Privacy Policy Agent":              "docs/privacy.md",
		"Cookie Consent Agent":              "consent/cookies.json",
		"Multi-tenant Agent":                "tenant/schema.sql",
		"RBAC Agent":                        "auth/roles.json",
		"SSO Agent":                         "auth/sso.json",
		"Audit Export Agent":                "scripts/export_audit.sh",
		"Data Residency Agent":              "compliance/residency.json",
		"HIPAA Agent":                       "docs/hipaa.md",
		"SOC2 Agent":                        "docs/soc2.md",
		"Penetration Test Agent":            "security/pentest.md",
		"Incident Response Agent":           "docs/incident_runbook.md",
		"SLA Agent":                         "docs/sla.md",
		"Cost Optimizer Agent":              "docs/cost.md",
		"Accessibility WCAG Agent":          "docs/wcag.md",
		"RTL Agent":                         "styles/rtl.css",
		"Dark Mode Agent":                   "themes/dark.json",
		"Keyboard Nav Agent":                "a11y/keyboard.md",
		"Screen Reader Agent":               "a11y/screenreader.md",
		"Component Library Agent":           "components/manifest.json",
		"Design System Agent":               "design/tokens.json",
		"Animation Agent":                   "animations/config.json",
		"Chart Agent":                       "charts/config.json",
		"Table Agent":                       "components/table.json",
		"Form Builder Agent":                "forms/schema.json",
		"Workflow Agent":                    "workflows/main.json",
		"Queue Agent":                       "queue/config.json",
		"Video Tutorial Agent":              "docs/tutorial_script.md",
		"IDE Integration Coordinator Agent": ".vscode/settings.json",
		"Multi-language Code Agent":         "api_go/main.go",
		"Team Collaboration Agent":          "docs/collab.md",
		"User Onboarding Agent":             "onboarding/flow.json",
		"Customization Engine Agent":        "customization/config.json",
		"Accessibility Agent":               "docs/a11y.md",
	} {
		s.ArtifactPaths[agent] = path
	}

	for agent, key := range map[string]string{
		"Test Executor":          "test_results",
		"Security Checker":       "security_report",
		"UX Auditor":             "ux_report",
		"Performance Analyzer":   "performance_report",
		"Code Review Agent":      "code_review_report",
		"Bundle Analyzer Agent":  "bundle_report",
		"Lighthouse Agent":       "lighthouse_report",
		"Dependency Audit Agent": "dependency_audit",
	} {
		s.ToolRunners[agent] = key
	}

	for _, agent := range []string{
		"Browser Tool Agent",
		"File Tool Agent",
		"API Tool Agent",
		"Database Tool Agent",
		"Deployment Tool Agent",
	} {
		s.RealTools[agent] = true
	}

	for _, agent := range []string{"Image Generation", "Video Generation", "Scraping Agent"} {
		s.Special[agent] = true
	}
	return s
}

// ToolCommand returns the allowlisted command a tool runner executes when
// it has no built-in post-step.
func ToolCommand(agent string) []string {
	switch agent {
	case "Code Review Agent":
		return []string{"python", "-m", "bandit", "-r", ".", "-f", "txt", "-ll"}
	case "Bundle Analyzer Agent":
		return []string{"npx", "source-map-explorer", "dist/*.js"}
	case "Lighthouse Agent":
		return []string{"npx", "lighthouse", "http://localhost:3000", "--output=json", "--chrome-flags=--headless"}
	case "Dependency Audit Agent":
		return []string{"npm", "audit"}
	}
	return nil
}
