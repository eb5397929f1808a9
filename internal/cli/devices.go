package cli

import (
	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/sysvers/internal/inventory"
	"github.com/sshcollectorpro/sysvers/internal/model"
)

func devicesCmd(a *app) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List devices from the inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, closeFn, err := a.source(source)
			if err != nil {
				return err
			}
			defer closeFn()

			devices, err := src.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				a.printf("No devices found.\n")
				return nil
			}
			a.printf("Found %d devices:\n", len(devices))
			for _, d := range devices {
				family := string(d.Family)
				if family == "" {
					family = string(model.FamilyAuto)
				}
				a.printf("  - %s (%s)", d.Name, family)
				if d.RecordedVersion != "" {
					a.printf(" %s", firstLine(d.RecordedVersion))
				}
				a.printf("\n")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "inventory source: infrahub|sqlite (default from config)")

	cmd.AddCommand(deviceAddCmd(a), deviceRemoveCmd(a))
	return cmd
}

func deviceAddCmd(a *app) *cobra.Command {
	var d inventory.Descriptor
	var deviceType string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add or update a device in the local inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Name = args[0]
			if deviceType != "" {
				f, err := model.ParseFamily(deviceType)
				if err != nil {
					return err
				}
				if f != model.FamilyAuto {
					d.Family = f
				}
			}

			store, closeFn, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeFn()
			if err := store.Upsert(cmd.Context(), d); err != nil {
				return err
			}
			a.printf("Saved device %s\n", d.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&deviceType, "device-type", "t", "", "device family (empty or auto: detect automatically)")
	cmd.Flags().IntVar(&d.Port, "ssh-port", 0, "SSH port for this device")
	cmd.Flags().StringVar(&d.RecordedVersion, "recorded-version", "", "currently known version")
	return cmd
}

func deviceRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME",
		Short: "Remove a device from the local inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeFn()
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Removed device %s\n", args[0])
			return nil
		},
	}
}
