// cmd/tools/registry-updater/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"usahud-crm/internal/models"
	"usahud-crm/internal/workflow"
	"usahud-crm/pkg/registry"
)

const defaultPath = "configs/workflow-presets.yaml"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "add":
		err = runAdd(os.Args[2:])
	case "add-step":
		err = runAddStep(os.Args[2:])
	case "update":
		err = runUpdate(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "help":
		help()
		return
	default:
		help()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", defaultPath, "Path to registry file")
	force := fs.Bool("force", false, "Overwrite an existing file")
	_ = fs.Parse(args)

	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s already exists, use -force to overwrite", *path)
	}

	reg := &registry.PresetRegistry{
		Version:     "1.0.0",
		LastUpdated: time.Now().Format(time.RFC3339),
		Presets:     workflow.DefaultPresets(),
	}
	if err := registry.SaveRegistry(reg, *path); err != nil {
		return err
	}
	fmt.Printf("Wrote %d presets to %s\n", len(reg.Presets), *path)
	return nil
}

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	path := fs.String("path", defaultPath, "Path to registry file")
	id := fs.String("id", "", "Preset ID (e.g., open_house)")
	name := fs.String("name", "", "Display name (e.g., Open House)")
	description := fs.String("description", "", "Description")
	icon := fs.String("icon", "", "Icon name")
	_ = fs.Parse(args)

	if *id == "" || *name == "" {
		fs.Usage()
		return errors.New("id and name are required for add")
	}

	reg, err := loadOrCreate(*path)
	if err != nil {
		return err
	}
	if reg.Find(*id) >= 0 {
		return fmt.Errorf("preset with ID %s already exists", *id)
	}

	reg.Presets = append(reg.Presets, models.WorkflowPreset{
		ID:          *id,
		Name:        *name,
		Description: *description,
		Icon:        *icon,
		Steps:       []models.WorkflowStep{},
	})
	if err := save(reg, *path); err != nil {
		return err
	}
	fmt.Printf("Added preset: %s\n", *id)
	return nil
}

func runAddStep(args []string) error {
	fs := flag.NewFlagSet("add-step", flag.ExitOnError)
	path := fs.String("path", defaultPath, "Path to registry file")
	preset := fs.String("preset", "", "Preset ID")
	id := fs.String("id", "", "Step ID")
	action := fs.String("action", "", "Action tag (e.g., send_welcome_email)")
	title := fs.String("title", "", "Step title")
	channel := fs.String("channel", "", "Channel (email, sms...)")
	delay := fs.Float64("delay", 0, "Delay in hours after the previous step")
	ai := fs.Bool("ai", false, "Step uses AI content")
	_ = fs.Parse(args)

	if *preset == "" || *id == "" || *action == "" {
		fs.Usage()
		return errors.New("preset, id and action are required for add-step")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	i := reg.Find(*preset)
	if i < 0 {
		return fmt.Errorf("%w: %s", registry.ErrPresetNotFound, *preset)
	}

	reg.Presets[i].Steps = append(reg.Presets[i].Steps, models.WorkflowStep{
		ID:        *id,
		Action:    *action,
		Title:     *title,
		Channel:   *channel,
		Delay:     *delay,
		AIEnabled: *ai,
	})
	if err := save(reg, *path); err != nil {
		return err
	}
	fmt.Printf("Added step %s to preset %s\n", *id, *preset)
	return nil
}

func runUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	path := fs.String("path", defaultPath, "Path to registry file")
	id := fs.String("id", "", "Preset ID to update")
	step := fs.String("step", "", "Step ID to update (optional)")
	field := fs.String("field", "", "Field to update")
	value := fs.String("value", "", "New value for the field")
	_ = fs.Parse(args)

	if *id == "" || *field == "" {
		fs.Usage()
		return errors.New("id and field are required for update")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	i := reg.Find(*id)
	if i < 0 {
		return fmt.Errorf("%w: %s", registry.ErrPresetNotFound, *id)
	}

	if *step == "" {
		err = updatePreset(&reg.Presets[i], *field, *value)
	} else {
		err = updateStep(&reg.Presets[i], *step, *field, *value)
	}
	if err != nil {
		return err
	}
	if err := save(reg, *path); err != nil {
		return err
	}
	fmt.Printf("Updated %s, field %s to %s\n", *id, *field, *value)
	return nil
}

func updatePreset(p *models.WorkflowPreset, field, value string) error {
	switch field {
	case "name":
		p.Name = value
	case "description":
		p.Description = value
	case "icon":
		p.Icon = value
	default:
		return fmt.Errorf("unknown preset field: %s", field)
	}
	return nil
}

func updateStep(p *models.WorkflowPreset, stepID, field, value string) error {
	for i := range p.Steps {
		s := &p.Steps[i]
		if s.ID != stepID {
			continue
		}
		switch field {
		case "action":
			s.Action = value
		case "title":
			s.Title = value
		case "description":
			s.Description = value
		case "template":
			s.Template = value
		case "channel":
			s.Channel = value
		case "recurring":
			s.Recurring = value
		case "delay":
			d, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid delay value: %w", err)
			}
			s.Delay = d
		case "aiEnabled":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid aiEnabled value: %w", err)
			}
			s.AIEnabled = b
		default:
			return fmt.Errorf("unknown step field: %s", field)
		}
		return nil
	}
	return fmt.Errorf("step %s not found in preset %s", stepID, p.ID)
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	path := fs.String("path", defaultPath, "Path to registry file")
	_ = fs.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := registry.Validate(reg); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	fmt.Printf("Registry validation passed. Found %d presets.\n", len(reg.Presets))
	return nil
}

func loadOrCreate(path string) (*registry.PresetRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if err == nil {
		return reg, nil
	}
	if os.IsNotExist(err) {
		return &registry.PresetRegistry{Version: "1.0.0"}, nil
	}
	return nil, fmt.Errorf("failed to load registry: %w", err)
}

func save(reg *registry.PresetRegistry, path string) error {
	reg.LastUpdated = time.Now().Format(time.RFC3339)
	return registry.SaveRegistry(reg, path)
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  init      Write the built-in presets to a registry file
  add       Add a new preset
  add-step  Append a step to a preset
  update    Update a preset or step field
  validate  Validate the registry file
  help      Show this help message

Examples:
  registry-updater init -path configs/workflow-presets.yaml
  registry-updater add -id open_house -name "Open House" -description "Invite and remind"
  registry-updater add-step -preset open_house -id invite -action send_welcome_email -title Invite
  registry-updater update -id open_house -step invite -field delay -value 2
  registry-updater validate -path configs/workflow-presets.yaml

Use 'registry-updater <command> -h' for more information about a command.`)
}
