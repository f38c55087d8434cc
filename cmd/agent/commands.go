package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type postPayload struct {
	ID              string   `json:"id"`
	SessionID       string   `json:"session_id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Hashtags        []string `json:"hashtags"`
	Status          string   `json:"status"`
	RejectionReason string   `json:"rejection_reason"`
	CreatedAt       string   `json:"created_at"`
}

func printPost(p postPayload) {
	fmt.Printf("\n%s\n\n", colorize(colorBold, p.Title))
	fmt.Println(p.Content)
	if len(p.Hashtags) > 0 {
		fmt.Printf("\n%s\n", colorize(colorCyan, strings.Join(p.Hashtags, " ")))
	}
	fmt.Println()
	printStatus("ID", "%s", p.ID)
	printStatus("Status", "%s", p.Status)
	if p.RejectionReason != "" {
		printStatus("Rejection reason", "%s", p.RejectionReason)
	}
	printStatus("Created", "%s", p.CreatedAt)
}

// --- generate ---

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a post and queue it for review",
	Long: `Generate a post and queue it for review.

Examples:
  agent generate
  agent generate --topic "AI-assisted lead scoring" --tone casual
  agent generate --length 600 --session weekly`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		tone, _ := cmd.Flags().GetString("tone")
		length, _ := cmd.Flags().GetInt("length")
		cta, _ := cmd.Flags().GetString("call-to-action")
		sessionID, _ := cmd.Flags().GetString("session")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{}
		if topic != "" {
			req["topic"] = topic
		}
		if tone != "" {
			req["tone"] = tone
		}
		if length > 0 {
			req["length"] = length
		}
		if cta != "" {
			req["call_to_action"] = cta
		}
		if sessionID != "" {
			req["session_id"] = sessionID
		}

		resp, err := client.post(cmd.Context(), "/generate_post", req)
		if err != nil {
			return err
		}

		var result struct {
			Post         postPayload `json:"post"`
			Notification string      `json:"notification"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printPost(result.Post)
		printSuccess("Post queued for review (%s)", result.Notification)
		return nil
	},
}

func init() {
	generateCmd.Flags().String("topic", "", "topic for the post (default: auto-selected)")
	generateCmd.Flags().String("tone", "", "writing tone")
	generateCmd.Flags().Int("length", 0, "approximate length in characters")
	generateCmd.Flags().String("call-to-action", "", "closing call to action")
	generateCmd.Flags().String("session", "", "session id for topic de-duplication")
}

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/get_post/"+args[0])
		if err != nil {
			return err
		}

		var post postPayload
		if err := decodeJSON(resp, &post); err != nil {
			return err
		}

		printPost(post)
		return nil
	},
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/posts?limit=%d", limit))
		if err != nil {
			return err
		}

		var posts []postPayload
		if err := decodeJSON(resp, &posts); err != nil {
			return err
		}

		if len(posts) == 0 {
			fmt.Println("No posts found.")
			return nil
		}

		for _, p := range posts {
			title := p.Title
			if len(title) > 60 {
				title = title[:60] + "..."
			}
			fmt.Printf("%s  %-8s  %s  %s\n",
				colorize(colorCyan, p.ID[:8]),
				p.Status,
				p.CreatedAt,
				title,
			)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Int("limit", 20, "maximum number of posts to list")
}

// --- approve ---

var approveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/approve_post/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Post %s approved", result["post_id"])
		return nil
	},
}

// --- reject ---

var rejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a pending post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/reject_post/" + args[0]
		if reason != "" {
			path += "?reason=" + url.QueryEscape(reason)
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Post %s rejected: %s", result["post_id"], result["reason"])
		return nil
	},
}

func init() {
	rejectCmd.Flags().String("reason", "", "reason for rejection")
}

// --- metrics ---

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show the usage report as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/metrics")
		if err != nil {
			return err
		}

		var report any
		if err := decodeJSON(resp, &report); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}
