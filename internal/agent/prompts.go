package agent

// Templates use {document} for the RFP text. The verdict template also
// carries {company_profile}, filled once when the dispatcher is built.

const summaryTemplate = `You are an expert at summarizing government RFPs. Read the text below and produce a concise summary:
- Highlight the main scope or purpose of the RFP.
- Identify key objectives and any critical deadlines or instructions.
- Do not exceed 250 words.:

{document}`

const checklistTemplate = `You are an RFP submission checklist generator. Analyze the following RFP and extract a detailed checklist
of all submission requirements, including document format (e.g., page limits, font type/size, line spacing),
required attachments or forms, table of contents requirements, and any other specific instructions.:

{document}`

const requirementsTemplate = `You are an expert RFP requirement extractor. Carefully analyze the RFP text below:
    - Even if the RFP says “All contractors must enroll in E-Verify,” treat E-Verify requirements as "preferred," 
    unless it explicitly says proposals will be disqualified without it.

    Output:
    1. Valid JSON array only.
    2. Each object: "requirement": short text, "type": "must_have" or "preferred."

    Example:
    [
    {"requirement": "E-Verify affidavit", "type": "preferred"},
    {"requirement": "Signed Non-Collusion Affidavit", "type": "must_have"}
    ]
:

{document}`

const riskTemplate = `You are a legal risk analyzer for RFP contracts. Read the RFP text and identify potential risks, such as:
- Unilateral termination
- Excessive penalties
- One-sided indemnification
- Conflicts of interest
- Strict liability clauses

For each risk found, provide:
- Clause: "..."
- Reason: "..."
- Suggestion: "..."

Use bullet points. No extra commentary.:

{document}`

// riskProfileSection is appended to the risk prompt when a company profile is supplied.
const riskProfileSection = `

### Company Profile:
{company_profile}`

const verdictTemplate = `
You are an expert in government RFP eligibility evaluation. You will receive two inputs:

1. The full RFP content (unstructured text)  
2. The company profile (already embedded below)

---

### RFP Document:
{document}

### Company Profile:
{company_profile}

---

### Your Task:
1. Carefully read the RFP and extract **all eligibility-related requirements**.
2. Organize them into two categories:
   - 📌 **Mandatory Requirements**: absolutely required for eligibility.
   - 📝 **Optional Requirements**: preferred, but not essential.
3. Compare these with the company profile and determine:
   - Which mandatory requirements are **met**
   - Which optional requirements are **met**
   - Which mandatory requirements are **missing**
4. If any requirements are **conditional or irrelevant**, you may ignore them — explain why in reasoning.
5. Do **not count** conditional requirements that do not apply to this company as missing.
6. Use **logical judgment** to determine eligibility score and final verdict.

---

### Final Output Format (JSON only — no extra text):
` + "```json" + `
{ 
  "eligible": true or false,
  "verdict": "Highly Eligible | Moderately Eligible | Not Eligible",
  "reasoning": "Short explanation of why",
  "mandatory_requirements": [...],
  "optional_requirements": [...],
  "met_mandatory": [...],
  "met_optional": [...],
  "missing_mandatory": [...]
}
`
