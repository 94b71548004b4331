// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev organization (slug acme-dev) already
// exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"tenant-control-plane/backend/internal/config"
	"tenant-control-plane/backend/internal/db"
	orgdomain "tenant-control-plane/backend/internal/organization/domain"
	orgrepo "tenant-control-plane/backend/internal/organization/repository"
	"tenant-control-plane/backend/internal/platform/events"
	rbacdomain "tenant-control-plane/backend/internal/rbac/domain"
	rbacrepo "tenant-control-plane/backend/internal/rbac/repository"
	"tenant-control-plane/backend/internal/slug"
	"tenant-control-plane/backend/internal/telemetry"
	oteltelemetry "tenant-control-plane/backend/internal/telemetry/otel"
	workspacedomain "tenant-control-plane/backend/internal/workspace/domain"
	workspacerepo "tenant-control-plane/backend/internal/workspace/repository"
)

const (
	devOrgID       = "dev-org-001"
	devOrgSlug     = "acme-dev"
	devWorkspaceID = "dev-workspace-001"
	devOwnerID     = "dev-user-001"
	devMemberID    = "dev-user-002"
)

// systemRoles are the platform-defined workspace roles and their grants.
var systemRoles = []struct {
	id      string
	name    string
	desc    string
	actions []string
}{
	{
		id:   "sys-role-owner",
		name: "workspace_owner",
		desc: "Full control of the workspace",
		actions: []string{
			"workspace:read", "workspace:update", "workspace:delete",
			"member:invite", "member:remove", "member:update",
			"role:create", "role:update", "role:delete", "role:assign",
		},
	},
	{
		id:   "sys-role-admin",
		name: "workspace_admin",
		desc: "Manage members and roles",
		actions: []string{
			"workspace:read", "workspace:update",
			"member:invite", "member:remove", "member:update",
			"role:assign",
		},
	},
	{
		id:      "sys-role-member",
		name:    "workspace_member",
		desc:    "Read and contribute",
		actions: []string{"workspace:read", "workspace:write"},
	},
	{
		id:      "sys-role-viewer",
		name:    "workspace_viewer",
		desc:    "Read only",
		actions: []string{"workspace:read"},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	orgs := orgrepo.NewPostgresStore(conn)
	workspaces := workspacerepo.NewPostgresStore(conn)
	memberships := workspacerepo.NewPostgresMembershipStore(conn)
	roles := rbacrepo.NewPostgresRoleStore(conn)
	assignments := rbacrepo.NewPostgresRoleAssignmentStore(conn)

	orgSlug, err := slug.Parse(devOrgSlug)
	if err != nil {
		log.Fatalf("seed slug: %v", err)
	}
	existing, err := orgs.GetBySlug(ctx, orgSlug)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (acme-dev exists). Skipping.")
		os.Exit(0)
	}

	providers, err := oteltelemetry.NewProviders(ctx, cfg.OTelEndpoint, cfg.OTelServiceName, cfg.OTelInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	emitter := oteltelemetry.NewEventEmitter(providers.LoggerProvider)
	emit := func(evs []events.Event) {
		for _, ev := range evs {
			telemetry.EmitAsync(emitter, ctx, ev)
		}
	}

	now := time.Now().UTC()

	org, err := orgdomain.New(devOrgID, "Acme Dev", orgSlug, map[string]string{"tier": "dev"}, now)
	if err != nil {
		log.Fatalf("build org: %v", err)
	}
	if err := orgs.Create(ctx, org); err != nil {
		log.Fatalf("create org: %v", err)
	}
	emit(org.DrainEvents())

	wsSlug, err := slug.Parse("main")
	if err != nil {
		log.Fatalf("workspace slug: %v", err)
	}
	ws, err := workspacedomain.New(devWorkspaceID, devOrgID, "Main", wsSlug, now)
	if err != nil {
		log.Fatalf("build workspace: %v", err)
	}
	if err := workspaces.Create(ctx, ws); err != nil {
		log.Fatalf("create workspace: %v", err)
	}

	owner, err := ws.AddMember(devOwnerID, workspacedomain.RoleOwner, "", now)
	if err != nil {
		log.Fatalf("add owner: %v", err)
	}
	if err := memberships.Create(ctx, owner); err != nil {
		log.Fatalf("create owner membership: %v", err)
	}
	member, err := ws.AddMember(devMemberID, workspacedomain.RoleMember, devOwnerID, now)
	if err != nil {
		log.Fatalf("add member: %v", err)
	}
	if err := memberships.Create(ctx, member); err != nil {
		log.Fatalf("create member membership: %v", err)
	}
	emit(ws.DrainEvents())

	scope := rbacdomain.WorkspaceScope(devWorkspaceID)
	for _, sr := range systemRoles {
		role, err := rbacdomain.NewSystem(sr.id, sr.name, sr.desc, scope, sr.actions, now)
		if err != nil {
			log.Fatalf("build system role %s: %v", sr.name, err)
		}
		if err := roles.Create(ctx, role); err != nil {
			log.Fatalf("create system role %s: %v", sr.name, err)
		}
		emit(role.DrainEvents())
	}

	ownerAssignment, err := rbacdomain.NewAssignment("dev-assignment-001", "sys-role-owner", devOwnerID, scope, "seed", now)
	if err != nil {
		log.Fatalf("build owner assignment: %v", err)
	}
	if err := assignments.Create(ctx, ownerAssignment); err != nil {
		log.Fatalf("create owner assignment: %v", err)
	}
	emit(ownerAssignment.DrainEvents())

	if cfg.OTelEndpoint != "" {
		// Give in-flight async emits time to reach the exporter.
		time.Sleep(telemetry.ShutdownDrainDuration)
	}
	if err := providers.Shutdown(ctx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}

	log.Println("Seed completed successfully.")
	log.Printf("Dev org: %s (workspace %s, owner %s)", devOrgSlug, devWorkspaceID, devOwnerID)
}
