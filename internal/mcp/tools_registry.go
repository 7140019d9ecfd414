package mcp

// registerAllTools registers all MCP tools with the registry
func (s *Server) registerAllTools(r *Registry) {
	s.registerAccountTools(r)
	s.registerCampaignTools(r)
	s.registerAdSetTools(r)
	s.registerAudienceTools(r)
	s.registerInsightTools(r)
	s.registerPageTools(r)
	s.registerCommentTools(r)
}

func (s *Server) registerAccountTools(r *Registry) {
	Register(r, ToolDef{
		Name: "get_ad_accounts",
		Description: `List the ad accounts the authenticated user can manage.

Returns id, name, status, currency and timezone for each account. The list is
remembered for the session. Call select_ad_account with one of the ids before
using account tools such as get_campaigns.`,
		Target: TargetTenant,
		Access: AccessRead,
	}, s.handleGetAdAccounts)

	Register(r, ToolDef{
		Name: "select_ad_account",
		Description: `Select the ad account that account tools operate on.

Requires accountId ("act_123" or "123"). The selection lasts until the session
ends or another account is selected.`,
		Target: TargetTenant,
		Access: AccessWrite,
	}, s.handleSelectAdAccount)

	Register(r, ToolDef{
		Name:        "get_account_info",
		Description: `Get details of the selected ad account: status, currency, timezone, amount spent, balance and spend cap.`,
		Target:      TargetAccount,
		Access:      AccessRead,
	}, s.handleGetAccountInfo)
}

func (s *Server) registerCampaignTools(r *Registry) {
	Register(r, ToolDef{
		Name: "get_campaigns",
		Description: `List campaigns of the selected ad account.

Optional status filters by effective status (e.g. ["ACTIVE","PAUSED"]).
Optional limit (default 25, max 100).`,
		Target: TargetAccount,
		Access: AccessRead,
	}, s.handleGetCampaigns)

	Register(r, ToolDef{
		Name:        "get_campaign_details",
		Description: `Get one campaign by campaignId, including budget, schedule and status.`,
		Target:      TargetTenant,
		Access:      AccessRead,
	}, s.handleGetCampaignDetails)

	Register(r, ToolDef{
		Name: "create_campaign",
		Description: `Create a campaign in the selected ad account.

Requires name and objective (e.g. OUTCOME_TRAFFIC, OUTCOME_LEADS). Status
defaults to PAUSED. Budgets are in the account currency's minor unit.`,
		Target: TargetAccount,
		Access: AccessWrite,
	}, s.handleCreateCampaign)

	Register(r, ToolDef{
		Name:        "update_campaign",
		Description: `Update a campaign's name, status or budget. Requires campaignId and at least one field to change.`,
		Target:      TargetTenant,
		Access:      AccessWrite,
	}, s.handleUpdateCampaign)

	Register(r, ToolDef{
		Name:        "delete_campaign",
		Description: `Delete a campaign by campaignId.`,
		Target:      TargetTenant,
		Access:      AccessWrite,
	}, s.handleDeleteCampaign)
}

func (s *Server) registerAdSetTools(r *Registry) {
	Register(r, ToolDef{
		Name: "get_ad_sets",
		Description: `List ad sets of the selected ad account, or of one campaign when campaignId is given.

Optional status filter and limit.`,
		Target: TargetAccount,
		Access: AccessRead,
	}, s.handleGetAdSets)

	Register(r, ToolDef{
		Name: "get_ads",
		Description: `List ads of the selected ad account, or of one ad set when adSetId is given.

Optional status filter and limit.`,
		Target: TargetAccount,
		Access: AccessRead,
	}, s.handleGetAds)
}

func (s *Server) registerAudienceTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "get_custom_audiences",
		Description: `List custom audiences of the selected ad account with their approximate size.`,
		Target:      TargetAccount,
		Access:      AccessRead,
	}, s.handleGetCustomAudiences)

	Register(r, ToolDef{
		Name: "create_custom_audience",
		Description: `Create a custom audience in the selected ad account.

Requires name. Subtype defaults to CUSTOM.`,
		Target: TargetAccount,
		Access: AccessWrite,
	}, s.handleCreateCustomAudience)
}

func (s *Server) registerInsightTools(r *Registry) {
	Register(r, ToolDef{
		Name: "get_insights",
		Description: `Get performance insights for the selected ad account or for one campaign, ad set or ad.

Optional objectId (defaults to the selected account), datePreset (default
last_30d), level (account, campaign, adset, ad), fields and breakdowns.`,
		Target: TargetAccount,
		Access: AccessRead,
	}, s.handleGetInsights)
}

func (s *Server) registerPageTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "get_pages",
		Description: `List the pages the authenticated user manages. Page access tokens are never returned.`,
		Target:      TargetTenant,
		Access:      AccessRead,
	}, s.handleGetPages)

	Register(r, ToolDef{
		Name:        "get_page_posts",
		Description: `List recent posts of a page. Requires pageId. Optional limit.`,
		Target:      TargetTenant,
		Access:      AccessRead,
	}, s.handleGetPagePosts)

	Register(r, ToolDef{
		Name:        "create_page_post",
		Description: `Publish a post on a page. Requires pageId and message. Optional link.`,
		Target:      TargetTenant,
		Access:      AccessWrite,
	}, s.handleCreatePagePost)
}

func (s *Server) registerCommentTools(r *Registry) {
	Register(r, ToolDef{
		Name: "get_post_comments",
		Description: `List comments on a page post.

Requires postId in its "pageId_postId" form. Optional limit and order
(chronological or reverse_chronological).`,
		Target: TargetTenant,
		Access: AccessRead,
	}, s.handleGetPostComments)

	Register(r, ToolDef{
		Name:        "reply_to_comment",
		Description: `Reply to a comment. Requires commentId and message. Pass pageId when the comment id does not start with the page id.`,
		Target:      TargetTenant,
		Access:      AccessWrite,
	}, s.handleReplyToComment)

	Register(r, ToolDef{
		Name:        "hide_comment",
		Description: `Hide or unhide a comment. Requires commentId. hidden defaults to true.`,
		Target:      TargetTenant,
		Access:      AccessWrite,
	}, s.handleHideComment)

	Register(r, ToolDef{
		Name:        "delete_comment",
		Description: `Delete a comment. Requires commentId.`,
		Target:      TargetTenant,
		Access:      AccessWrite,
	}, s.handleDeleteComment)

	Register(r, ToolDef{
		Name: "bulk_reply_to_comments",
		Description: `Reply to several comments in one call.

Requires replies, a list of {commentId, message} (at most 50). Each reply is
attempted independently and reported in results; one failure does not stop
the rest.`,
		Target: TargetTenant,
		Access: AccessWrite,
	}, s.handleBulkReplyToComments)

	Register(r, ToolDef{
		Name: "bulk_delete_comments",
		Description: `Delete several comments in one call.

Requires commentIds (at most 50). Each deletion is reported in results.`,
		Target: TargetTenant,
		Access: AccessWrite,
	}, s.handleBulkDeleteComments)
}
