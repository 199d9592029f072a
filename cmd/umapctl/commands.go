package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"umap/backend/internal/dto"
	"umap/backend/internal/roomref"
	"umap/backend/pkg/jwt"
	"umap/backend/pkg/redis"
)

// ── 房间数据批处理 ──

func fixRoomNumbersCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fix-room-numbers",
		Short: "按档案名称重算房间号，普通教室名称同步为 Room N",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.svc.Maintenance.FixRoomNumbers(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "只预览变更，不写库")
	return cmd
}

func updateRoomNamesCmd() *cobra.Command {
	var (
		dryRun    bool
		floorName string
	)

	cmd := &cobra.Command{
		Use:   "update-room-names",
		Short: "按参考表 CSV 更新房间名称",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.svc.Maintenance.UpdateRoomNames(cmd.Context(), floorName, dryRun)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "只预览变更，不写库")
	cmd.Flags().StringVar(&floorName, "floor-name", "", "只处理指定楼层（如 \"10th Floor\"）")
	return cmd
}

func fixSpecialRoomsCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fix-special-rooms",
		Short: "电梯/楼梯类房间的房间号统一为类型名",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.svc.Maintenance.FixSpecialRooms(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "只预览变更，不写库")
	return cmd
}

// ── 平面图导入 ──

func importSVGCmd() *cobra.Command {
	var (
		file string
		req  dto.FloorPlanImportRequest
	)

	cmd := &cobra.Command{
		Use:   "import-svg",
		Short: "导入楼层 SVG 平面图",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("打开 SVG 文件失败: %w", err)
			}
			defer f.Close()

			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.svc.FloorPlan.Import(cmd.Context(), &req, filepath.Base(file), f, "umapctl")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "楼层 %s（第 %d 层）：图形 %d，新建 %d，更新 %d\n",
				result.FloorID, result.Level, result.Shapes, result.Created, result.Updated)
			for _, r := range result.Rooms {
				fmt.Fprintf(out, "  %-16s %-24s %s\n", r.Number, r.Name, r.Type)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "SVG 文件路径")
	cmd.Flags().StringVar(&req.FloorID, "floor-id", "", "目标楼层 ID")
	cmd.Flags().IntVar(&req.FloorLevel, "level", 0, "楼层号（缺省时从文件名或楼层名推断）")
	cmd.Flags().StringVar(&req.BuildingID, "building-id", "", "楼栋编号（缺省取配置）")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("floor-id")
	return cmd
}

// ── 参考表检查 ──

func roomRefCheckCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "roomref-check",
		Short: "解析房间名称参考表并输出条目数",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				cfg, _, err := loadConfig()
				if err != nil {
					return err
				}
				path = cfg.RoomRef.CSVPath
			}

			entries, err := roomref.CSVLoader{Path: path}.Load(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return errors.New("参考表为空")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d 条\n", path, len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "CSV 路径（缺省取配置 roomref.csv_path）")
	return cmd
}

// ── Token ──

func tokenCmd() *cobra.Command {
	var userID, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "签发 access token（本地调试用）",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != jwt.RoleStudent && role != jwt.RoleAdmin {
				return fmt.Errorf("role 仅支持 %s 或 %s", jwt.RoleStudent, jwt.RoleAdmin)
			}
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(userID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "用户 ID")
	cmd.Flags().StringVar(&role, "role", jwt.RoleStudent, "角色")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func revokeCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "将 access token 加入 Redis 黑名单",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			claims, err := jwt.NewManager(&cfg.Auth).ParseToken(token)
			if err != nil {
				return fmt.Errorf("解析 Token 失败: %w", err)
			}

			rdb, err := redis.NewClient(&cfg.Redis, logger)
			if err != nil {
				return err
			}
			defer rdb.Close()

			ttl := time.Until(claims.ExpiresAt.Time)
			if err := rdb.BlacklistToken(cmd.Context(), claims.ID, ttl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已注销 %s（剩余 %s）\n", claims.ID, ttl.Round(time.Second))
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "要注销的 access token")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func printReport(w io.Writer, r *dto.MaintenanceReport) {
	mode := "已写入"
	if r.DryRun {
		mode = "预览"
	}
	fmt.Fprintf(w, "%s（%s）：扫描 %d，变更 %d，跳过 %d\n", r.Command, mode, r.Scanned, r.Changed, r.Skipped)
	for _, c := range r.Changes {
		fmt.Fprintf(w, "  %s %s: %q -> %q\n", c.RoomID, c.Field, c.From, c.To)
	}
}
