package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/memberhub/internal/app/moderation"
	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const timeLayout = "2006-01-02 15:04"

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show pending counts for every queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(c context.Context, svc *moderation.Service, caller moderation.Caller) error {
				ov, err := svc.Stats.Overview(c, caller)
				if err != nil {
					return err
				}
				rows := [][]string{{"members", strconv.FormatInt(ov.Users.Pending, 10)}}
				for _, t := range registry.Default().Types() {
					rows = append(rows, []string{string(t), strconv.FormatInt(ov.Content[t], 10)})
				}
				rows = append(rows, []string{"total", strconv.FormatInt(ov.PendingTotal, 10)})
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Queue", "Pending"}, rows, 1))
				fmt.Fprintf(cmd.OutOrStdout(), "%d registered users\n", ov.Users.Total)
				return nil
			})
		},
	}
}

func newContentCommand(ctx *commandContext) *cobra.Command {
	contentCmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect and review pending content",
	}
	contentCmd.AddCommand(newContentPendingCommand(ctx))
	contentCmd.AddCommand(newContentReviewCommand(ctx))
	contentCmd.AddCommand(newContentReopenCommand(ctx))
	return contentCmd
}

func newContentPendingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pending <type>",
		Short: "List pending items of a content type, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(c context.Context, svc *moderation.Service, caller moderation.Caller) error {
				items, err := svc.Queue.ListPending(c, caller, registry.Type(args[0]))
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, []string{
						it.ItemID().Hex(),
						it.DisplayName(),
						it.OwnerRef().Hex(),
						formatTime(it.ModerationState().SubmittedAt),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Owner", "Submitted"}, rows))
				return nil
			})
		},
	}
}

func newContentReviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "review <type> <id> <approve|reject>",
		Short: "Approve or reject a pending item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := primitive.ObjectIDFromHex(args[1])
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}
			decision, err := parseDecision(args[2])
			if err != nil {
				return err
			}
			return ctx.withService(cmd.Context(), func(c context.Context, svc *moderation.Service, caller moderation.Caller) error {
				item, err := svc.Engine.ReviewContent(c, caller, registry.Type(args[0]), id, decision)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q is now %s\n", args[0], item.DisplayName(), item.ModerationState().Status)
				return nil
			})
		},
	}
}

func newContentReopenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <type> <id>",
		Short: "Return a rejected item to the pending queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := primitive.ObjectIDFromHex(args[1])
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}
			return ctx.withService(cmd.Context(), func(c context.Context, svc *moderation.Service, caller moderation.Caller) error {
				item, err := svc.Engine.ReopenContent(c, caller, registry.Type(args[0]), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q is now %s\n", args[0], item.DisplayName(), item.ModerationState().Status)
				return nil
			})
		},
	}
}

func newMembersCommand(ctx *commandContext) *cobra.Command {
	membersCmd := &cobra.Command{
		Use:   "members",
		Short: "Inspect and review membership applications",
	}
	membersCmd.AddCommand(newMembersPendingCommand(ctx))
	membersCmd.AddCommand(newMembersApproveCommand(ctx))
	membersCmd.AddCommand(newMembersRejectCommand(ctx))
	membersCmd.AddCommand(newMembersReopenCommand(ctx))
	return membersCmd
}

func newMembersPendingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List pending applications, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(c context.Context, svc *moderation.Service, caller moderation.Caller) error {
				members, err := svc.Queue.ListPendingMembers(c, caller)
				if err != nil {
					return err
				}
				if len(members) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(members))
				for _, m := range members {
					name, city := "(no profile)", ""
					if m.Profile != nil {
						name, city = m.Profile.FullName, m.Profile.City
					}
					rows = append(rows, []string{
						m.User.ID.Hex(),
						name,
						m.User.MobileNumber,
						city,
						formatTime(m.User.CreatedAt),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Mobile", "City", "Registered"}, rows))
				return nil
			})
		},
	}
}

func newMembersApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <userId>",
		Short: "Approve an application and mark the profile verified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reviewMember(cmd, ctx, args[0], models.UserActive, true, "")
		},
	}
}

func newMembersRejectCommand(ctx *commandContext) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject <userId>",
		Short: "Reject an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reviewMember(cmd, ctx, args[0], models.UserRejected, false, reason)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Reason included in the member's notification")
	return cmd
}

func newMembersReopenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <userId>",
		Short: "Return a rejected application to the pending queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := primitive.ObjectIDFromHex(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			return ctx.withService(cmd.Context(), func(c context.Context, svc *moderation.Service, caller moderation.Caller) error {
				u, err := svc.Engine.ReopenMember(c, caller, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "member %s is now %s\n", u.ID.Hex(), u.Status)
				return nil
			})
		},
	}
}

func reviewMember(cmd *cobra.Command, ctx *commandContext, rawID string, decision models.UserStatus, verified bool, reason string) error {
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return fmt.Errorf("invalid user id %q", rawID)
	}
	return ctx.withService(cmd.Context(), func(c context.Context, svc *moderation.Service, caller moderation.Caller) error {
		res, err := svc.Engine.ReviewMember(c, caller, id, decision, verified, reason)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "member %s is now %s\n", res.User.ID.Hex(), res.User.Status)
		return nil
	})
}

func parseDecision(s string) (models.Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "APPROVE", "APPROVED":
		return models.StatusApproved, nil
	case "REJECT", "REJECTED":
		return models.StatusRejected, nil
	}
	return "", fmt.Errorf("decision must be approve or reject, got %q", s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func newSessionKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "session-key",
		Short: "Print a random value for MEMBERHUB_SESSION_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), auth.GenerateKey())
			return nil
		},
	}
}
