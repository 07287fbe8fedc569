package server

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	content, err := fs.ReadFile(TemplateFilesFS(), name)
	if err != nil {
		return nil, err
	}
	return template.New(name).Parse(string(content))
}

type pageTemplates struct {
	login     *template.Template
	layout    *template.Template
	dashboard *template.Template
	mentions  *template.Template
	accounts  *template.Template
	logout    *template.Template
}

func loadTemplates() (*pageTemplates, error) {
	t := &pageTemplates{}
	for name, dst := range map[string]**template.Template{
		"login.html":             &t.login,
		"admin_layout.html":      &t.layout,
		"dashboard_content.html": &t.dashboard,
		"mentions_content.html":  &t.mentions,
		"accounts_content.html":  &t.accounts,
		"logout_content.html":    &t.logout,
	} {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, err
		}
		*dst = tmpl
	}
	return t, nil
}
