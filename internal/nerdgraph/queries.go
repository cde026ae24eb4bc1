package nerdgraph

// EntityType 选择要分页拉取的实体集合。
type EntityType string

const (
	EntityPolicies     EntityType = "policies"
	EntityConditions   EntityType = "nrqlConditions"
	EntityWorkflows    EntityType = "workflows"
	EntityChannels     EntityType = "channels"
	EntityDestinations EntityType = "destinations"
)

// AllEntities 为一次完整导出需要的实体，顺序即日志与汇总顺序。
var AllEntities = []EntityType{
	EntityPolicies,
	EntityConditions,
	EntityWorkflows,
	EntityChannels,
	EntityDestinations,
}

// querySpec 描述实体对应的 GraphQL 文档以及结果所在路径。
type querySpec struct {
	Query      string
	Path       []string
	ItemsField string
}

var querySpecs = map[EntityType]querySpec{
	EntityPolicies: {
		Query: `query($accountId: Int!, $cursor: String) {
  actor {
    account(id: $accountId) {
      alerts {
        policiesSearch(cursor: $cursor) {
          policies {
            id
            name
            incidentPreference
          }
          nextCursor
        }
      }
    }
  }
}`,
		Path:       []string{"actor", "account", "alerts", "policiesSearch"},
		ItemsField: "policies",
	},
	EntityConditions: {
		Query: `query($accountId: Int!, $cursor: String) {
  actor {
    account(id: $accountId) {
      alerts {
        nrqlConditionsSearch(cursor: $cursor) {
          nrqlConditions {
            id
            policyId
            name
            type
            nrql {
              query
            }
            terms {
              operator
              priority
              threshold
              thresholdDuration
              thresholdOccurrences
            }
          }
          nextCursor
        }
      }
    }
  }
}`,
		Path:       []string{"actor", "account", "alerts", "nrqlConditionsSearch"},
		ItemsField: "nrqlConditions",
	},
	EntityWorkflows: {
		Query: `query($accountId: Int!, $cursor: String) {
  actor {
    account(id: $accountId) {
      aiWorkflows {
        workflows(cursor: $cursor) {
          entities {
            id
            name
            destinationConfigurations {
              channelId
              name
              type
            }
            issuesFilter {
              predicates {
                attribute
                operator
                values
              }
            }
          }
          nextCursor
        }
      }
    }
  }
}`,
		Path:       []string{"actor", "account", "aiWorkflows", "workflows"},
		ItemsField: "entities",
	},
	EntityChannels: {
		Query: `query($accountId: Int!, $cursor: String) {
  actor {
    account(id: $accountId) {
      aiNotifications {
        channels(cursor: $cursor) {
          entities {
            id
            name
            type
            destinationId
            product
          }
          nextCursor
        }
      }
    }
  }
}`,
		Path:       []string{"actor", "account", "aiNotifications", "channels"},
		ItemsField: "entities",
	},
	EntityDestinations: {
		Query: `query($accountId: Int!, $cursor: String) {
  actor {
    account(id: $accountId) {
      aiNotifications {
        destinations(cursor: $cursor) {
          entities {
            id
            name
            properties {
              key
              value
            }
          }
          nextCursor
        }
      }
    }
  }
}`,
		Path:       []string{"actor", "account", "aiNotifications", "destinations"},
		ItemsField: "entities",
	},
}
