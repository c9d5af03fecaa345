// ABOUTME: Admin CLI for the spotter backend
// ABOUTME: Mints tokens and manages users over the authenticated HTTP API

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/itayeylath/spotter-backend/internal/config"
	"github.com/itayeylath/spotter-backend/internal/identity"
	"github.com/itayeylath/spotter-backend/internal/store"
)

const banner = `
                 _   _                            _           _
  ___ _ __  ___ | |_| |_ ___ _ __        __ _  __| |_ __ ___ (_)_ __
 / __| '_ \/ _ \|  _|  _/ _ \ '__|_____ / _' |/ _' | '_ ' _ \| | '_ \
 \__ \ |_) | (_) | |_| ||  __/ | |_____| (_| | (_| | | | | | | | | | |
 |___/ .__/\___/ \__|\__\___|_|         \__,_|\__,_|_| |_| |_|_|_| |_|
     |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	baseURL := os.Getenv("SPOTTER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	token := getToken()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "me":
		err = cmdMe(baseURL, token)
	case "status":
		err = cmdStatus(baseURL, token)
	case "token":
		err = cmdToken(args)
	case "users":
		err = cmdUsers(baseURL, token, args)
	case "stats":
		err = cmdStats(baseURL, token)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: spotter-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  me                      Show your identity")
	fmt.Println("  status                  Show backend status and your identity")
	fmt.Println("  token create --uid UID  Mint a signed identity token (local, needs config)")
	fmt.Println("  users                   List all users (admin)")
	fmt.Println("  users list              List all users (admin)")
	fmt.Println("  users todos <uid>       List a user's todos (admin)")
	fmt.Println("  users delete <uid>      Delete a user and their todos (admin)")
	fmt.Println("  stats                   Show system statistics (admin)")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  SPOTTER_URL             Backend base URL (default: http://localhost:8080)")
	fmt.Println("  SPOTTER_TOKEN           Bearer token (falls back to the bootstrap token file)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  export SPOTTER_TOKEN=\"eyJhbG...\"")
	fmt.Println("  spotter-admin me")
	fmt.Println("  spotter-admin users todos alice")
	fmt.Println("  spotter-admin token create --uid alice --email alice@example.com")
	fmt.Println()
}

// getToken reads the token from SPOTTER_TOKEN or the bootstrap token file.
func getToken() string {
	if token := os.Getenv("SPOTTER_TOKEN"); token != "" {
		return token
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	data, err := os.ReadFile(filepath.Join(configDir, "spotter", "token"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// apiRequest performs an authenticated request and decodes the JSON
// response into out. Non-2xx responses surface the error envelope message.
func apiRequest(baseURL, token, method, path string, out any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Message != "" {
			return fmt.Errorf("%s (status %d)", envelope.Message, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

type userInfo struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	CreatedAt   string `json:"createdAt"`
}

type todoInfo struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
}

// cmdMe shows the current user's identity
func cmdMe(baseURL, token string) error {
	if token == "" {
		return fmt.Errorf("SPOTTER_TOKEN environment variable is required")
	}

	var resp struct {
		User userInfo `json:"user"`
	}
	if err := apiRequest(baseURL, token, http.MethodGet, "/api/iam/me", &resp); err != nil {
		return err
	}

	var adminResp struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if err := apiRequest(baseURL, token, http.MethodGet, "/api/admin/check-status", &adminResp); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	fmt.Println()
	cyan.Println("  Identity")
	cyan.Println("  --------")
	fmt.Printf("  UID:          %s\n", resp.User.UID)
	fmt.Printf("  Email:        %s\n", resp.User.Email)
	if resp.User.DisplayName != "" {
		fmt.Printf("  Display Name: %s\n", resp.User.DisplayName)
	}
	if adminResp.IsAdmin {
		green.Println("  Admin:        yes")
	} else {
		fmt.Println("  Admin:        no")
	}
	fmt.Println()

	return nil
}

// cmdStatus shows backend status and identity
func cmdStatus(baseURL, token string) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()

	if err := apiRequest(baseURL, "", http.MethodGet, "/health", nil); err != nil {
		yellow.Printf("  Backend:  ")
		color.Red("UNREACHABLE (%v)\n", err)
		return nil
	}

	green.Printf("  Backend:  ")
	fmt.Printf("connected to %s\n", baseURL)

	if token != "" {
		var resp struct {
			User userInfo `json:"user"`
		}
		if err := apiRequest(baseURL, token, http.MethodGet, "/api/iam/me", &resp); err != nil {
			yellow.Printf("  Identity: ")
			color.Red("auth failed (%v)\n", err)
		} else {
			green.Printf("  Identity: ")
			fmt.Printf("%s (%s)\n", resp.User.UID, resp.User.Email)
		}
	} else {
		yellow.Printf("  Identity: ")
		fmt.Println("(no token - set SPOTTER_TOKEN)")
	}

	fmt.Println()
	return nil
}

// cmdToken mints a signed identity token directly from the local config.
// It does not need a running backend, only access to the JWT secret.
func cmdToken(args []string) error {
	if len(args) < 1 || args[0] != "create" {
		return fmt.Errorf("usage: spotter-admin token create --uid UID [--email EMAIL] [--name NAME] [--ttl DURATION]")
	}
	args = args[1:]

	var uid, email, name, ttlStr string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--uid":
			if i+1 >= len(args) {
				return fmt.Errorf("--uid requires a value")
			}
			uid = args[i+1]
			i++
		case strings.HasPrefix(arg, "--uid="):
			uid = strings.TrimPrefix(arg, "--uid=")
		case arg == "--email":
			if i+1 >= len(args) {
				return fmt.Errorf("--email requires a value")
			}
			email = args[i+1]
			i++
		case strings.HasPrefix(arg, "--email="):
			email = strings.TrimPrefix(arg, "--email=")
		case arg == "--name":
			if i+1 >= len(args) {
				return fmt.Errorf("--name requires a value")
			}
			name = args[i+1]
			i++
		case strings.HasPrefix(arg, "--name="):
			name = strings.TrimPrefix(arg, "--name=")
		case arg == "--ttl":
			if i+1 >= len(args) {
				return fmt.Errorf("--ttl requires a value")
			}
			ttlStr = args[i+1]
			i++
		case strings.HasPrefix(arg, "--ttl="):
			ttlStr = strings.TrimPrefix(arg, "--ttl=")
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	ttl := 24 * time.Hour
	if ttlStr != "" {
		var err error
		ttl, err = time.ParseDuration(ttlStr)
		if err != nil {
			return fmt.Errorf("parsing --ttl: %w", err)
		}
	}

	if uid == "" {
		return fmt.Errorf("--uid flag is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	directory, err := identity.NewDirectory([]byte(cfg.Auth.JWTSecret), s)
	if err != nil {
		return fmt.Errorf("creating identity directory: %w", err)
	}

	token, err := directory.Mint(uid, email, name, ttl)
	if err != nil {
		return fmt.Errorf("minting token: %w", err)
	}

	fmt.Println(token)
	return nil
}

// loadConfig mirrors the server's config resolution for local commands.
func loadConfig() (*config.Config, error) {
	configPath := os.Getenv("SPOTTER_CONFIG")
	if configPath == "" {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return config.FromEnv()
			}
			configDir = filepath.Join(homeDir, ".config")
		}
		configPath = filepath.Join(configDir, "spotter", "spotter.yaml")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config.FromEnv()
	}
	return config.Load(configPath)
}

// cmdUsers handles users subcommands
func cmdUsers(baseURL, token string, args []string) error {
	if token == "" {
		return fmt.Errorf("SPOTTER_TOKEN environment variable is required")
	}

	// Default to list
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list":
		return cmdUsersList(baseURL, token)
	case "todos":
		if len(args) < 1 {
			return fmt.Errorf("usage: spotter-admin users todos <uid>")
		}
		return cmdUserTodos(baseURL, token, args[0])
	case "delete":
		if len(args) < 1 {
			return fmt.Errorf("usage: spotter-admin users delete <uid>")
		}
		return cmdUserDelete(baseURL, token, args[0])
	default:
		return fmt.Errorf("unknown users subcommand: %s", subcmd)
	}
}

func cmdUsersList(baseURL, token string) error {
	var users []userInfo
	if err := apiRequest(baseURL, token, http.MethodGet, "/api/admin/users", &users); err != nil {
		return err
	}

	if len(users) == 0 {
		fmt.Println("No users.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UID\tEMAIL\tNAME\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.UID, u.Email, u.DisplayName, u.CreatedAt)
	}
	return w.Flush()
}

func cmdUserTodos(baseURL, token, uid string) error {
	var todos []todoInfo
	if err := apiRequest(baseURL, token, http.MethodGet, "/api/admin/users/"+uid+"/todos", &todos); err != nil {
		return err
	}

	if len(todos) == 0 {
		fmt.Printf("No todos for %s.\n", uid)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tCONTENT\tCREATED")
	for _, t := range todos {
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(w, "%s\t[%s]\t%s\t%s\n", t.ID, done, t.Content, t.CreatedAt)
	}
	return w.Flush()
}

func cmdUserDelete(baseURL, token, uid string) error {
	if err := apiRequest(baseURL, token, http.MethodDelete, "/api/admin/users/"+uid, nil); err != nil {
		return err
	}
	color.Green("Deleted user %s and their todos.\n", uid)
	return nil
}

// cmdStats shows system statistics
func cmdStats(baseURL, token string) error {
	if token == "" {
		return fmt.Errorf("SPOTTER_TOKEN environment variable is required")
	}

	var stats struct {
		Users struct {
			Total int `json:"total"`
		} `json:"users"`
		Todos struct {
			Total     int `json:"total"`
			Completed int `json:"completed"`
			Active    int `json:"active"`
			LastWeek  int `json:"lastWeek"`
		} `json:"todos"`
		UpdatedAt string `json:"updatedAt"`
	}
	if err := apiRequest(baseURL, token, http.MethodGet, "/api/admin/stats", &stats); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)

	fmt.Println()
	cyan.Println("  Users")
	cyan.Println("  -----")
	fmt.Printf("  Total:     %d\n", stats.Users.Total)
	fmt.Println()
	cyan.Println("  Todos")
	cyan.Println("  -----")
	fmt.Printf("  Total:     %d\n", stats.Todos.Total)
	fmt.Printf("  Completed: %d\n", stats.Todos.Completed)
	fmt.Printf("  Active:    %d\n", stats.Todos.Active)
	fmt.Printf("  Last week: %d\n", stats.Todos.LastWeek)
	fmt.Println()
	fmt.Printf("  As of %s\n", stats.UpdatedAt)
	fmt.Println()

	return nil
}
