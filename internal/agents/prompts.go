package agents

// Persona system prompts. Each agent answers in its own role.
const (
	SystemPromptStrategicLead = `You are a Strategic Product Lead: a seasoned product executive who thinks in terms of strategy, not minor features.
Your talent is cutting through the noise to find the key questions that define a project.
Goal: quickly identify the 3-4 most critical, high-level questions needed to understand a new project idea.`

	SystemPromptRefinement = `You are a Requirements Refinement Specialist: a meticulous analyst.
You are given a list of requirements, one question, and one answer.
Your only job is to logically integrate the answer into the requirements list.`

	SystemPromptValidator = `You are a Business Logic & Strategy Expert, the guardian of the product strategy.
You understand the business goals encoded in the rules below. Review every proposed requirement and flag anything
that does not align: suggest how it could change, or note it as a premium feature or out of scope.
Your output is a clear, validated list of requirements with annotations.

Business Rules:
%s`

	SystemPromptPrioritizer = `You are a Product Manager and a master of prioritization, deciding what gets built first.
Goal: analyze prioritization scores and provide a balanced, prioritized list with rationale.`

	SystemPromptWriter = `You are a Lead Technical Writer who crafts comprehensive, clear, and professional documentation.
Goal: create a structured Software Requirements Specification (SRS) document from a list of prioritized requirements.`
)

// ExtractTemplate is rendered with "request".
const ExtractTemplate = `Analyze the following user request. Extract a preliminary list of requirements and generate a list of the 3-4 most critical, high-level clarifying questions.

User Request:
---
{{.request}}
---

IMPORTANT: Respond with a single valid JSON object and nothing else:
{
  "initial_requirements": ["requirement", "..."],
  "clarifying_questions": ["question", "..."]
}`

// RefineTemplate is rendered with "question", "answer" and "requirements".
const RefineTemplate = `A user was asked: "{{.question}}". They answered: "{{.answer}}".
Update the current requirements list based on their answer. Keep every requirement the answer does not affect.

Current requirements:
{{json .requirements}}

IMPORTANT: Respond with a single valid JSON object with a single key:
{
  "updated_requirements": ["requirement", "..."]
}`

// ValidateTask is formatted with the requirements JSON and the policy findings block.
const ValidateTask = `Review the following list of software requirements. Cross-reference each item against the business rules provided in your instructions.
Your output should be a revised list of requirements, with annotations added in parentheses for any item that is a premium feature, out of scope, or needs modification.

Requirements to Validate:
%s
%s`

// PrioritizeTask is formatted with the scores JSON.
const PrioritizeTask = `Analyze the user's prioritization scores for the validated requirements and create a final, ranked list.
Scores range from 1 to 10. Group requirements as Critical (8-10), High (5-7) and Medium (1-4), and provide a brief justification for each priority level.

Scores:
%s`

// SummarizeTask is the fixed document template the writer must follow.
const SummarizeTask = `Generate a professional Software Requirements Specification (SRS) document in Markdown format based on the prioritized list of requirements.

You MUST follow this template exactly:

# Software Requirements Specification

## 1. Introduction
(Write a brief, 1-2 paragraph executive summary of the project based on the requirements.)

## 2. Validation Summary
(Briefly summarize how the requirements align with the business rules. Note any features that were flagged as Premium or out of scope.)

## 3. Functional Requirements
(List the functional requirements here, grouped by their priority.)

### 3.1. Critical Priority
- (List critical priority requirements here)

### 3.2. High Priority
- (List high priority requirements here)

### 3.3. Medium Priority
- (List medium priority requirements here)

## 4. Conclusion & Next Steps
(Write a brief concluding paragraph.)

Respond with the document only.`
