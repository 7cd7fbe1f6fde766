package catalog

// AllPackBuilders returns the bundled, static pack table. This is the
// catalog's only data source (spec.md §4.1: "loaded once at startup from a
// bundled static table"). Pattern literals are grounded on
// joyshmitz-slb/internal/core/patterns.go's default pattern set, regrouped
// into spec.md §3's tier scheme and widened with packs that tier implies
// (cloud, kubernetes, containers, database, package_managers, strict_git,
// cicd) that the teacher's flatter safe/critical/dangerous/caution scheme
// did not separate.
func AllPackBuilders() []PackDef {
	return []PackDef{
		coreFilesystemPack(),
		coreGitPack(),
		systemDiskPack(),
		systemPermissionsPack(),
		infrastructureTerraformPack(),
		cloudAWSPack(),
		cloudGCloudPack(),
		kubernetesKubectlPack(),
		kubernetesHelmPack(),
		containersDockerPack(),
		databaseSQLPack(),
		packageManagersPack(),
		strictGitPack(),
		cicdWorkflowsPack(),
	}
}

func coreFilesystemPack() PackDef {
	return PackDef{
		PackID:          "core.filesystem",
		Tier:            TierCore,
		TriggerKeywords: []string{"rm"},
		Safe: []PatternSpec{
			{Name: "rm-log", Regex: `(?i)^rm\s+(-\w+\s+)*\S*\.log$`},
			{Name: "rm-tmp", Regex: `(?i)^rm\s+(-\w+\s+)*\S*\.tmp$`},
			{Name: "rm-bak", Regex: `(?i)^rm\s+(-\w+\s+)*\S*\.bak$`},
			{Name: "rm-tmpdir", Regex: `(?i)^rm\s+-[rRfF]+\s+/tmp/\S+`},
		},
		Destructive: []PatternSpec{
			{
				Name:     "rm-rf-system-root",
				Regex:    `(?i)^rm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+/(bin|boot|dev|etc|home|lib|lib64|media|mnt|opt|proc|root|run|sbin|srv|sys|usr|var)(/|\s|$)`,
				Severity: SeverityCritical,
				Reason:   "removes a system directory tree",
			},
			{
				Name:     "rm-rf-root",
				Regex:    `(?i)^rm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+/(\s|\*|$)`,
				Severity: SeverityCritical,
				Reason:   "removes the filesystem root",
			},
			{
				Name:     "rm-rf-home",
				Regex:    `(?i)^rm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+~(/|\s|$)?`,
				Severity: SeverityHigh,
				Reason:   "removes the user's home directory",
			},
			{
				Name:     "rm-rf-generic",
				Regex:    `(?i)^rm\s+-[a-zA-Z]*[rf][a-zA-Z]*[rf]?[a-zA-Z]*(\s|$)`,
				Severity: SeverityHigh,
				Reason:   "recursive/forced removal",
			},
			{
				Name:     "rm-bare",
				Regex:    `(?i)^rm$`,
				Severity: SeverityLow,
				Reason:   "bare rm, often used from xargs pipelines",
				Mode:     ModeWarn,
			},
		},
	}
}

func coreGitPack() PackDef {
	return PackDef{
		PackID:          "core.git",
		Tier:            TierCore,
		TriggerKeywords: []string{"git"},
		Safe: []PatternSpec{
			{Name: "status", Regex: `(?i)^git\s+status\b`},
			{Name: "log", Regex: `(?i)^git\s+log\b`},
			{Name: "diff", Regex: `(?i)^git\s+diff\b`},
			{Name: "stash-bare", Regex: `(?i)^git\s+stash\s*$`},
			{Name: "fetch", Regex: `(?i)^git\s+fetch\b`},
		},
		Destructive: []PatternSpec{
			{
				Name:     "force-push",
				Regex:    `(?i)^git\s+push\b.*(--force(\s|$)|--force-with-lease|\s-f(\s|$))`,
				Severity: SeverityCritical,
				Reason:   "force push can overwrite remote history",
			},
			{
				Name:     "reset-hard",
				Regex:    `(?i)^git\s+reset\s+--hard\b`,
				Severity: SeverityHigh,
				Reason:   "discards uncommitted work and resets the working tree",
			},
			{
				Name:     "clean-fd",
				Regex:    `(?i)^git\s+clean\s+-[a-zA-Z]*[fd][a-zA-Z]*`,
				Severity: SeverityHigh,
				Reason:   "permanently deletes untracked files",
			},
			{
				Name:     "branch-delete-force",
				Regex:    `(?i)^git\s+branch\s+-D\b`,
				Severity: SeverityMedium,
				Reason:   "force-deletes a branch, even if unmerged",
			},
			{
				Name:     "stash-drop",
				Regex:    `(?i)^git\s+stash\s+(drop|clear)\b`,
				Severity: SeverityLow,
				Reason:   "discards stashed work",
				Mode:     ModeWarn,
			},
		},
	}
}

func systemDiskPack() PackDef {
	return PackDef{
		PackID:          "system.disk",
		Tier:            TierSystem,
		TriggerKeywords: []string{"dd", "mkfs", "fdisk", "parted", "sfdisk", "wipefs"},
		Destructive: []PatternSpec{
			{
				Name:     "dd-to-device",
				Regex:    `(?i)\bdd\b.*\bof=/dev/\S+`,
				Severity: SeverityCritical,
				Reason:   "writes raw bytes directly to a block device",
			},
			{
				Name:     "mkfs",
				Regex:    `(?i)^mkfs(\.\w+)?\b`,
				Severity: SeverityCritical,
				Reason:   "formats a filesystem, destroying existing data",
			},
			{
				Name:     "fdisk",
				Regex:    `(?i)^fdisk\b`,
				Severity: SeverityHigh,
				Reason:   "modifies disk partition tables",
			},
			{
				Name:     "parted",
				Regex:    `(?i)^parted\b`,
				Severity: SeverityHigh,
				Reason:   "modifies disk partition tables",
			},
			{
				Name:     "wipefs",
				Regex:    `(?i)^wipefs\b.*-a\b`,
				Severity: SeverityHigh,
				Reason:   "erases filesystem signatures from a device",
			},
		},
	}
}

func systemPermissionsPack() PackDef {
	return PackDef{
		PackID:          "system.permissions",
		Tier:            TierSystem,
		TriggerKeywords: []string{"chmod", "chown"},
		Destructive: []PatternSpec{
			{
				Name:     "chmod-system",
				Regex:    `(?i)^chmod\s+.*-R.*\s+/(etc|usr|var|boot|bin|sbin)(/|\s|$)`,
				Severity: SeverityHigh,
				Reason:   "recursively changes permissions on a system directory",
			},
			{
				Name:     "chown-system",
				Regex:    `(?i)^chown\s+.*-R.*\s+/(etc|usr|var|boot|bin|sbin)(/|\s|$)`,
				Severity: SeverityHigh,
				Reason:   "recursively changes ownership of a system directory",
			},
			{
				Name:     "chmod-777",
				Regex:    `(?i)^chmod\s+(-R\s+)?0?777\b`,
				Severity: SeverityMedium,
				Reason:   "grants world-writable permissions",
			},
		},
	}
}

func infrastructureTerraformPack() PackDef {
	return PackDef{
		PackID:          "infrastructure.terraform",
		Tier:            TierInfrastructure,
		TriggerKeywords: []string{"terraform", "tofu"},
		Safe: []PatternSpec{
			{Name: "plan", Regex: `(?i)^(terraform|tofu)\s+plan\b`},
			{Name: "validate", Regex: `(?i)^(terraform|tofu)\s+validate\b`},
			{Name: "fmt", Regex: `(?i)^(terraform|tofu)\s+fmt\b`},
		},
		Destructive: []PatternSpec{
			{
				Name:     "destroy-bare",
				Regex:    `(?i)^(terraform|tofu)\s+destroy\s*$`,
				Severity: SeverityCritical,
				Reason:   "destroys all resources in the current workspace",
			},
			{
				Name:     "destroy-auto-approve",
				Regex:    `(?i)^(terraform|tofu)\s+destroy\b.*--auto-approve`,
				Severity: SeverityCritical,
				Reason:   "destroys resources without a confirmation prompt",
			},
			{
				Name:     "destroy-targeted",
				Regex:    `(?i)^(terraform|tofu)\s+destroy\s+[^-]`,
				Severity: SeverityHigh,
				Reason:   "destroys a specific named resource",
			},
			{
				Name:     "state-rm",
				Regex:    `(?i)^(terraform|tofu)\s+state\s+rm\b`,
				Severity: SeverityHigh,
				Reason:   "removes a resource from terraform state without destroying it, causing drift",
			},
		},
	}
}

func cloudAWSPack() PackDef {
	return PackDef{
		PackID:          "cloud.aws",
		Tier:            TierCloud,
		TriggerKeywords: []string{"aws"},
		Destructive: []PatternSpec{
			{
				Name:     "ec2-terminate",
				Regex:    `(?i)^aws\s+ec2\s+terminate-instances\b`,
				Severity: SeverityCritical,
				Reason:   "permanently terminates EC2 instances",
			},
			{
				Name:     "rds-delete",
				Regex:    `(?i)^aws\s+rds\s+delete-db-instance\b`,
				Severity: SeverityCritical,
				Reason:   "deletes an RDS database instance",
			},
			{
				Name:     "s3-rm-recursive",
				Regex:    `(?i)^aws\s+s3\s+rm\b.*--recursive`,
				Severity: SeverityHigh,
				Reason:   "recursively deletes objects from an S3 bucket",
			},
			{
				Name:     "s3-rb-force",
				Regex:    `(?i)^aws\s+s3\s+rb\b.*--force`,
				Severity: SeverityHigh,
				Reason:   "force-deletes an S3 bucket and its contents",
			},
		},
	}
}

func cloudGCloudPack() PackDef {
	return PackDef{
		PackID:          "cloud.gcloud",
		Tier:            TierCloud,
		TriggerKeywords: []string{"gcloud"},
		Destructive: []PatternSpec{
			{
				Name:     "delete-quiet",
				Regex:    `(?i)^gcloud\b.*\bdelete\b.*--quiet`,
				Severity: SeverityHigh,
				Reason:   "deletes a cloud resource without an interactive confirmation",
			},
			{
				Name:     "compute-instances-delete",
				Regex:    `(?i)^gcloud\s+compute\s+instances\s+delete\b`,
				Severity: SeverityCritical,
				Reason:   "deletes a Compute Engine instance",
			},
			{
				Name:     "sql-instances-delete",
				Regex:    `(?i)^gcloud\s+sql\s+instances\s+delete\b`,
				Severity: SeverityCritical,
				Reason:   "deletes a Cloud SQL instance",
			},
			{
				Name:     "projects-delete",
				Regex:    `(?i)^gcloud\s+projects\s+delete\b`,
				Severity: SeverityCritical,
				Reason:   "schedules an entire GCP project for deletion",
			},
		},
	}
}

func kubernetesKubectlPack() PackDef {
	return PackDef{
		PackID:          "kubernetes.kubectl",
		Tier:            TierKubernetes,
		TriggerKeywords: []string{"kubectl", "k"},
		Safe: []PatternSpec{
			{Name: "delete-pod", Regex: `(?i)^k(ubectl)?\s+delete\s+pod\b`},
			{Name: "get", Regex: `(?i)^k(ubectl)?\s+get\b`},
			{Name: "describe", Regex: `(?i)^k(ubectl)?\s+describe\b`},
			{Name: "logs", Regex: `(?i)^k(ubectl)?\s+logs\b`},
		},
		Destructive: []PatternSpec{
			{
				Name:     "delete-cluster-scoped",
				Regex:    `(?i)^k(ubectl)?\s+delete\s+(node|nodes|namespace|namespaces|ns|pv|persistentvolume|pvc|persistentvolumeclaim)\b`,
				Severity: SeverityCritical,
				Reason:   "deletes a cluster-scoped or storage resource",
			},
			{
				Name:     "delete-all",
				Regex:    `(?i)^k(ubectl)?\s+delete\b.*--all\b`,
				Severity: SeverityCritical,
				Reason:   "deletes all resources of a kind in the target namespace",
			},
			{
				Name:     "delete-generic",
				Regex:    `(?i)^k(ubectl)?\s+delete\b`,
				Severity: SeverityMedium,
				Reason:   "deletes a cluster resource",
			},
		},
	}
}

func kubernetesHelmPack() PackDef {
	return PackDef{
		PackID:          "kubernetes.helm",
		Tier:            TierKubernetes,
		TriggerKeywords: []string{"helm"},
		Safe: []PatternSpec{
			{Name: "list", Regex: `(?i)^helm\s+list\b`},
			{Name: "status", Regex: `(?i)^helm\s+status\b`},
		},
		Destructive: []PatternSpec{
			{
				Name:     "uninstall-all",
				Regex:    `(?i)^helm\s+uninstall\b.*--all\b`,
				Severity: SeverityCritical,
				Reason:   "uninstalls every release managed by helm",
			},
			{
				Name:     "uninstall",
				Regex:    `(?i)^helm\s+uninstall\b`,
				Severity: SeverityHigh,
				Reason:   "uninstalls a helm release and its resources",
			},
		},
	}
}

func containersDockerPack() PackDef {
	return PackDef{
		PackID:          "containers.docker",
		Tier:            TierContainers,
		TriggerKeywords: []string{"docker", "podman"},
		Safe: []PatternSpec{
			{Name: "ps", Regex: `(?i)^(docker|podman)\s+ps\b`},
			{Name: "images", Regex: `(?i)^(docker|podman)\s+images\b`},
			{Name: "logs", Regex: `(?i)^(docker|podman)\s+logs\b`},
		},
		Destructive: []PatternSpec{
			{
				Name:     "system-prune-all",
				Regex:    `(?i)^(docker|podman)\s+system\s+prune\b.*-a\b`,
				Severity: SeverityCritical,
				Reason:   "removes all unused containers, networks, and images",
			},
			{
				Name:     "rm-force",
				Regex:    `(?i)^(docker|podman)\s+rm\b.*-[a-zA-Z]*f`,
				Severity: SeverityHigh,
				Reason:   "force-removes a container, even if running",
			},
			{
				Name:     "rmi-force",
				Regex:    `(?i)^(docker|podman)\s+rmi\b.*-[a-zA-Z]*f`,
				Severity: SeverityMedium,
				Reason:   "force-removes an image",
			},
			{
				Name:     "volume-prune",
				Regex:    `(?i)^(docker|podman)\s+volume\s+prune\b`,
				Severity: SeverityHigh,
				Reason:   "removes unused volumes, which may hold unreferenced data",
			},
		},
	}
}

func databaseSQLPack() PackDef {
	return PackDef{
		PackID:          "database.sql",
		Tier:            TierDatabase,
		TriggerKeywords: []string{"drop", "truncate", "delete", "psql", "mysql", "sqlite3"},
		Safe: []PatternSpec{
			{Name: "select", Regex: `(?i)^select\b`},
		},
		Destructive: []PatternSpec{
			{
				Name:     "drop-database",
				Regex:    `(?i)\bdrop\s+database\b`,
				Severity: SeverityCritical,
				Reason:   "drops an entire database",
			},
			{
				Name:     "drop-schema",
				Regex:    `(?i)\bdrop\s+schema\b`,
				Severity: SeverityCritical,
				Reason:   "drops an entire schema",
			},
			{
				Name:     "truncate-table",
				Regex:    `(?i)\btruncate\s+table\b`,
				Severity: SeverityCritical,
				Reason:   "removes all rows from a table, bypassing row-level triggers",
			},
			{
				Name:     "drop-table",
				Regex:    `(?i)\bdrop\s+table\b`,
				Severity: SeverityHigh,
				Reason:   "drops a table and its data",
			},
			{
				Name:     "delete-no-where",
				Regex:    "(?i)\\bdelete\\s+from\\s+[\\w.`\"\\[\\]]+\\s*(;|$|--|/\\*)",
				Severity: SeverityCritical,
				Reason:   "deletes every row in a table (no WHERE clause)",
			},
			{
				Name:     "delete-with-where",
				Regex:    `(?i)\bdelete\s+from\b.*\bwhere\b`,
				Severity: SeverityHigh,
				Reason:   "deletes rows matching a condition",
			},
		},
	}
}

func packageManagersPack() PackDef {
	return PackDef{
		PackID:          "package_managers.common",
		Tier:            TierPackageManagers,
		TriggerKeywords: []string{"npm", "pip", "pip3", "cargo", "gem"},
		Safe: []PatternSpec{
			{Name: "npm-cache-clean", Regex: `(?i)^npm\s+cache\s+clean\b`},
			{Name: "npm-install", Regex: `(?i)^npm\s+(install|ci|test)\b`},
		},
		Destructive: []PatternSpec{
			{
				Name:     "npm-unpublish",
				Regex:    `(?i)^npm\s+unpublish\b`,
				Severity: SeverityHigh,
				Reason:   "unpublishes a package version from the registry, which is usually irreversible",
			},
			{
				Name:     "npm-uninstall-global",
				Regex:    `(?i)^npm\s+uninstall\b.*-g\b`,
				Severity: SeverityLow,
				Reason:   "removes a globally installed package",
				Mode:     ModeWarn,
			},
			{
				Name:     "pip-uninstall",
				Regex:    `(?i)^pip3?\s+uninstall\b`,
				Severity: SeverityLow,
				Reason:   "uninstalls a Python package",
				Mode:     ModeWarn,
			},
			{
				Name:     "cargo-remove",
				Regex:    `(?i)^cargo\s+remove\b`,
				Severity: SeverityLow,
				Reason:   "removes a crate dependency",
				Mode:     ModeWarn,
			},
			{
				Name:     "gem-uninstall",
				Regex:    `(?i)^gem\s+uninstall\b`,
				Severity: SeverityLow,
				Reason:   "uninstalls a Ruby gem",
				Mode:     ModeWarn,
			},
		},
	}
}

// strictGitPack is an opt-in, stricter companion to core.git: it warns on
// unforced pushes to main/master and on commit --amend, for teams that want
// extra friction around shared-history mutation. Other pushes are not
// flagged. Disabled by default (see optInTiers in catalog.go).
func strictGitPack() PackDef {
	return PackDef{
		PackID:          "strict_git.any_push",
		Tier:            TierStrictGit,
		TriggerKeywords: []string{"git"},
		Destructive: []PatternSpec{
			{
				Name:     "push-main",
				Regex:    `(?i)^git\s+push\b.*\b(origin\s+)?(main|master)\b`,
				Severity: SeverityLow,
				Reason:   "pushes directly to a default branch",
				Mode:     ModeWarn,
			},
			{
				Name:     "commit-amend-pushed",
				Regex:    `(?i)^git\s+commit\b.*--amend\b`,
				Severity: SeverityLow,
				Reason:   "amends a commit that may already be shared",
				Mode:     ModeWarn,
			},
		},
	}
}

// cicdWorkflowsPack catches commands that remove or overwrite CI/CD
// pipeline definitions, an opt-in companion tier alongside strict_git.
func cicdWorkflowsPack() PackDef {
	return PackDef{
		PackID:          "cicd.workflows",
		Tier:            TierCICD,
		TriggerKeywords: []string{"rm", "git"},
		Destructive: []PatternSpec{
			{
				Name:     "rm-workflows",
				Regex:    `(?i)^rm\s+(-[a-zA-Z]+\s+)*\.github/workflows\b`,
				Severity: SeverityHigh,
				Reason:   "removes CI/CD pipeline definitions",
			},
			{
				Name:     "git-rm-workflows",
				Regex:    `(?i)^git\s+rm\b.*\.github/workflows\b`,
				Severity: SeverityHigh,
				Reason:   "removes CI/CD pipeline definitions from version control",
			},
		},
	}
}
