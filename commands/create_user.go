package commands

import (
	"fmt"

	"restaurant-service/models"
	"restaurant-service/repository"
	"restaurant-service/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	newUsername string
	newPassword string
	newEmail    string
	newStaff    bool
	newGroups   []string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an account, optionally as administrator or staff group member",
	Long: `Create an account from the command line.

Examples:
  restaurant-service create-user --username admin --password 's3cret-pass' --staff
  restaurant-service create-user --username mario --password 'pizza-time-7' --group Manager`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		users := repository.NewGormUserRepository(rt.db)
		tokens := services.NewTokenService(rt.cfg.JWTSecret, rt.cfg.AccessTokenTTL, rt.cfg.RefreshTokenTTL)
		auth := services.NewAuthService(users, tokens, rt.log)
		groups := services.NewGroupService(users, rt.log)

		user, svcErr := auth.Register(cmd.Context(), &models.RegisterRequest{
			Username: newUsername,
			Password: newPassword,
			Email:    newEmail,
		}, newStaff)
		if svcErr != nil {
			return fmt.Errorf("create user: %s", describe(svcErr))
		}

		for _, g := range newGroups {
			if svcErr := groups.AddMember(cmd.Context(), g, user.Username); svcErr != nil {
				return fmt.Errorf("add %s to %q: %s", user.Username, g, describe(svcErr))
			}
		}

		rt.log.Info("User created",
			zap.Uint("user_id", user.ID),
			zap.String("username", user.Username),
			zap.Bool("staff", newStaff),
			zap.Strings("groups", newGroups),
		)
		return nil
	},
}

// describe flattens a ServiceError, including field messages, for the terminal.
func describe(e *services.ServiceError) string {
	if e.Body != nil {
		return fmt.Sprintf("%s %v", e.Message, e.Body)
	}
	return e.Message
}

func init() {
	createUserCmd.Flags().StringVar(&newUsername, "username", "", "Username (required)")
	createUserCmd.Flags().StringVar(&newPassword, "password", "", "Password (required)")
	createUserCmd.Flags().StringVar(&newEmail, "email", "", "Email address")
	createUserCmd.Flags().BoolVar(&newStaff, "staff", false, "Grant administrator rights")
	createUserCmd.Flags().StringSliceVar(&newGroups, "group", nil, "Staff group to join (Manager, Delivery crew); repeatable")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("password")
}
