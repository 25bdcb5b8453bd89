package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow instances keep the full record as a JSON document; the
			-- columns beside it are the ones queried on.
			CREATE TABLE workflow_instances (
				workflow_type VARCHAR(255) NOT NULL,
				id VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				closed_at TIMESTAMP WITH TIME ZONE,
				parent_type VARCHAR(255),
				parent_id VARCHAR(255),
				document JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (workflow_type, id)
			);

			CREATE INDEX idx_workflow_instances_parent ON workflow_instances(parent_type, parent_id);
			CREATE INDEX idx_workflow_instances_closed_at ON workflow_instances(closed_at);

			CREATE TABLE node_instances (
				node_type VARCHAR(255) NOT NULL,
				id VARCHAR(255) NOT NULL,
				workflow_type VARCHAR(255) NOT NULL,
				workflow_id VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				closed_at TIMESTAMP WITH TIME ZONE,
				document JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (node_type, id)
			);

			CREATE INDEX idx_node_instances_workflow ON node_instances(workflow_type, workflow_id);
		`,
		2: `
			-- Input node columns used by SLA scans.
			ALTER TABLE node_instances
				ADD COLUMN staff_role VARCHAR(255),
				ADD COLUMN input_status VARCHAR(20),
				ADD COLUMN deadline TIMESTAMP WITH TIME ZONE;

			CREATE INDEX idx_node_instances_open_deadline ON node_instances(deadline)
				WHERE closed_at IS NULL AND input_status IN ('ready', 'started');
		`,
	}
}
